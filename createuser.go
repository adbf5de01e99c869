package main

import (
	"errors"
	"fmt"

	"yanote/config"
	userModel "yanote/internal/user/model"
	userService "yanote/internal/user/service"
	"yanote/pkg/apperr"

	"github.com/spf13/cobra"
)

var createUserPassword string

var createUserCmd = &cobra.Command{
	Use:   "createuser <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store != config.StoreSQL {
			return errors.New("createuser needs STORE=sql")
		}
		st, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		users := userService.NewUserService(st.users)
		user, err := users.SignUp(cmd.Context(), userModel.SignUpRequest{
			Username: args[0],
			Password: createUserPassword,
			Confirm:  createUserPassword,
		})
		if err != nil {
			if verr, ok := apperr.AsValidation(err); ok {
				return fmt.Errorf("invalid account: %w", verr)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created user %q (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVarP(&createUserPassword, "password", "p", "", "Account password")
	createUserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createUserCmd)
}
