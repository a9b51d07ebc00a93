// FILE: internal/client/commands/util.go
package commands

import (
	"fmt"
	"strings"
	"time"

	"repertoire/internal/client/display"
	"repertoire/internal/client/session"
)

func (r *Registry) registerUtilityCommands() {
	r.Register(&Command{
		Name:        "health",
		ShortName:   ".",
		Description: "Check server health",
		Usage:       "health",
		Group:       groupUtility,
		Handler:     healthHandler,
	})

	r.Register(&Command{
		Name:        "url",
		ShortName:   "/",
		Description: "Show or set the server URL",
		Usage:       "url [http://host:port]",
		Group:       groupUtility,
		Handler:     urlHandler,
	})

	r.Register(&Command{
		Name:        "token",
		ShortName:   "k",
		Description: "Show, set or clear (-) the bearer token",
		Usage:       "token [token|-]",
		Group:       groupUtility,
		Handler:     tokenHandler,
	})

	r.Register(&Command{
		Name:        "login",
		ShortName:   "o",
		Description: "Log in and store the issued token",
		Usage:       "login <username>",
		Group:       groupUtility,
		Handler:     loginHandler,
	})
}

func healthHandler(s *session.Session, _ []string) error {
	resp, err := s.Client.Health()
	if err != nil {
		return err
	}
	auth := "off"
	if resp.Auth {
		auth = "on"
	}
	s.Printf("Server: %s%s%s  storage: %s  auth: %s  time: %s\n",
		display.Green(), resp.Status, display.Reset(), resp.Storage, auth,
		time.Unix(resp.Time, 0).Format(time.RFC3339))
	return nil
}

func urlHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		s.Printf("API: %s\n", s.Client.BaseURL)
		return nil
	}
	u := args[0]
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}
	s.Client.SetBaseURL(u)
	s.Printf("API: %s\n", s.Client.BaseURL)
	return nil
}

func tokenHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		if s.Client.AuthToken == "" {
			s.Printf("No token set\n")
		} else {
			s.Printf("Token: %s\n", s.Client.AuthToken)
		}
		return nil
	}
	if args[0] == "-" {
		s.Client.SetToken("")
		s.Username = ""
		s.Printf("Token cleared\n")
		return nil
	}
	s.Client.SetToken(args[0])
	s.Printf("Token set\n")
	return nil
}

func loginHandler(s *session.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: login <username>")
	}
	if s.Input == nil {
		return fmt.Errorf("login needs an interactive terminal")
	}
	password, err := s.Input.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	resp, err := s.Client.Login(args[0], password)
	if err != nil {
		return err
	}
	s.Client.SetToken(resp.Token)
	s.Username = resp.Username
	s.Printf("Logged in as %s%s%s until %s\n", display.Magenta(), resp.Username, display.Reset(),
		time.Unix(resp.ExpiresAt, 0).Format(time.RFC3339))
	return nil
}
