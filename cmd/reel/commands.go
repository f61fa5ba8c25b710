package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/fishalchemy/reel/internal/access"
	"github.com/fishalchemy/reel/internal/api"
	"github.com/fishalchemy/reel/internal/auth"
	"github.com/fishalchemy/reel/internal/config"
	"github.com/fishalchemy/reel/internal/domain"
	"github.com/fishalchemy/reel/internal/session"
	"github.com/fishalchemy/reel/internal/store"
)

func loginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache the session",
		Long: `Sign in to the server and cache the session cookie.

Credentials are read from REEL_USERNAME and REEL_PASSWORD when both are set,
otherwise you are prompted. The password is not echoed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()

			providers := []auth.CredentialProvider{&auth.PromptProvider{Username: username}}
			if username == "" {
				providers = append([]auth.CredentialProvider{&auth.EnvProvider{}}, providers...)
			}
			creds, err := auth.GetCredentials(providers...)
			if err != nil {
				return err
			}

			s, err := e.sessions.Login(cmd.Context(), creds.Username, creds.Password)
			if err != nil {
				var rej *api.RejectedError
				if errors.As(err, &rej) {
					return fmt.Errorf("login failed: %w", rej)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", s.Username())
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username. Skips the username prompt.")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()

			if err := e.sessions.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (local session cleared)\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()

			s, err := e.sessions.Resolve(cmd.Context())
			if err != nil {
				if cached := e.sessions.Current(); cached != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; showing the cached session\n", err)
					printUser(cmd, cached)
					return nil
				}
				return err
			}
			if s == nil {
				return session.ErrNoSession
			}
			printUser(cmd, s)
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, s *session.Session) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "User:\t%s (id %d)\n", s.Username(), s.UserID())
	fmt.Fprintf(w, "Role:\t%s\n", s.Role())
	for _, g := range s.Groups() {
		fmt.Fprintf(w, "Group:\t%s (id %d)\n", g.Name, g.ID)
	}
}

func ticketsCmd() *cobra.Command {
	var projectID int
	var sortBy string
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Print a project's tickets grouped by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID <= 0 {
				return errors.New("--project is required")
			}
			key := store.SortNumber
			if sortBy != "" {
				k, err := store.ParseSortKey(sortBy)
				if err != nil {
					return err
				}
				key = k
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.closeLog()

			s, err := e.sessions.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			project, err := access.RequireProjectAccess(cmd.Context(), e.client, s, projectID)
			if err != nil {
				return err
			}

			st := store.New()
			st.SetProject(&project)
			st.Load(project.Tickets)
			st.Sort(key, true)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "%s\n", project.Name)
			for _, state := range domain.TicketStates {
				tickets := st.Bucket(state)
				fmt.Fprintf(w, "\n%s (%d)\n", state.Title(), len(tickets))
				for _, t := range tickets {
					assignee := t.Assignee()
					if assignee == "" {
						assignee = "-"
					}
					due := t.DueDate.DateString()
					if due == "" {
						due = "-"
					}
					fmt.Fprintf(w, "  #%d\t%s\t%s\t%s\n", t.Number, t.Name, assignee, due)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "Project id.")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort key: name, number, assignee or \"due date\".")
	return cmd
}

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List groups with their members and projects",
		Long: `List groups. Admins see every group, other users the groups they belong to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, s, err := signedIn(cmd)
			if err != nil {
				return err
			}
			defer e.closeLog()

			res, err := e.client.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := res.Unwrap()
			if err != nil {
				return fmt.Errorf("failed to list groups: %w", err)
			}
			printGroups(cmd.OutOrStdout(), visibleGroups(s, groups))
			return nil
		},
	}
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects with their group and lead",
		Long: `List projects. Admins see every project, other users the projects of
their groups.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, s, err := signedIn(cmd)
			if err != nil {
				return err
			}
			defer e.closeLog()

			res, err := e.client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			projects, err := res.Unwrap()
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}
			printProjects(cmd.OutOrStdout(), visibleProjects(s, projects))
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Print a user's profile and groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			e, _, err := signedIn(cmd)
			if err != nil {
				return err
			}
			defer e.closeLog()

			res, err := e.client.GetUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			u, err := res.Unwrap()
			if err != nil {
				return fmt.Errorf("failed to get user %d: %w", id, err)
			}
			printProfile(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

// signedIn sets up the command and requires a live session. The caller
// closes the log on success.
func signedIn(cmd *cobra.Command) (*env, *session.Session, error) {
	e, err := setup()
	if err != nil {
		return nil, nil, err
	}
	s, err := e.sessions.Resolve(cmd.Context())
	if err == nil {
		err = access.RequireSession(s)
	}
	if err != nil {
		e.closeLog()
		return nil, nil, err
	}
	return e, s, nil
}

// visibleGroups keeps the groups s belongs to unless s is an admin.
func visibleGroups(s *session.Session, groups []domain.Group) []domain.Group {
	if s.IsAdmin() {
		return groups
	}
	return slices.DeleteFunc(slices.Clone(groups), func(g domain.Group) bool { return !s.InGroup(g.ID) })
}

// visibleProjects keeps the projects of s's groups unless s is an admin.
func visibleProjects(s *session.Session, projects []domain.Project) []domain.Project {
	if s.IsAdmin() {
		return projects
	}
	return slices.DeleteFunc(slices.Clone(projects), func(p domain.Project) bool { return !s.InGroup(p.Group.ID) })
}

func printGroups(out io.Writer, groups []domain.Group) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tPROJECTS")
	for _, g := range groups {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", g.ID, g.Name, len(g.Users), len(g.Projects))
	}
}

func printProjects(out io.Writer, projects []domain.Project) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tNAME\tGROUP\tLEAD\tTICKETS")
	for _, p := range projects {
		lead := "-"
		if p.Lead != nil {
			lead = p.Lead.Username
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Group.Name, lead, max(p.TicketCount, len(p.Tickets)))
	}
}

func printProfile(out io.Writer, u domain.User) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "User:\t%s (id %d)\n", u.Username, u.ID)
	if u.Email != "" {
		fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	}
	if u.Role != "" {
		fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	}
	for _, g := range u.Groups {
		fmt.Fprintf(w, "Group:\t%s (id %d)\n", g.Name, g.ID)
	}
	fmt.Fprintf(w, "Tickets:\t%d\n", len(u.Tickets))
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFlag
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
