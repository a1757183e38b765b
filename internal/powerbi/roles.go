package powerbi

import "fmt"

// Row-level-security role names configured in the Power BI dataset. The
// dataset filters rows by these names; they are part of the report's
// definition, not of this service.
const (
	RLSRoleMentor  = "FiltroMentor"
	RLSRoleStudent = "FiltroAlumno"
)

// MapRole maps a portal role to the dataset's RLS role. The mapping is
// total over non-empty roles: "teacher" gets the mentor scope and every
// other role falls through to the student scope, which is the most
// restrictive one. An unknown role must never widen what a session can
// see. The empty role is rejected outright.
func MapRole(role string) (string, error) {
	switch role {
	case "":
		return "", fmt.Errorf("empty role")
	case "teacher":
		return RLSRoleMentor, nil
	default:
		return RLSRoleStudent, nil
	}
}
