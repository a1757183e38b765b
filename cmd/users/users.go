package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for user account management
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage portal user accounts",
	Long:  `Commands for managing portal user accounts directly against the database.`,
}

func init() {
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user (required)")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the user (use --stdin to avoid shell history)")
	createCmd.Flags().StringVar(&roleFlag, "role", "student", "Portal role (teacher or student)")
	createCmd.Flags().StringVar(&registrationIDFlag, "registration-id", "", "Optional enrollment/registration identifier")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	disableCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user (required)")

	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(disableCmd)
}
