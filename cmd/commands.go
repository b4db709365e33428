package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ochronus/gonekoweb/internal/deploy"
	"github.com/ochronus/gonekoweb/internal/http"
	"github.com/ochronus/gonekoweb/internal/services/nekoweb"
	"github.com/ochronus/gonekoweb/internal/utils"
	"github.com/spf13/cobra"
)

func siteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "site [username]",
		Short: "Show site info (your own site when no username is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := loadContainer(cmd)
			if err != nil {
				return err
			}

			username := ""
			if len(args) == 1 {
				username = args[0]
			}

			var site *nekoweb.Site
			if container.API != nil {
				site, err = container.API.GetSite(cmd.Context(), username)
			} else {
				site, err = container.Client.GetSite(cmd.Context(), username)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "domain:    %s\n", site.Domain)
			fmt.Fprintf(out, "updates:   %d\n", site.Updates)
			fmt.Fprintf(out, "followers: %d\n", site.Followers)
			fmt.Fprintf(out, "views:     %d\n", site.Views)
			fmt.Fprintf(out, "created:   %s\n", site.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "updated:   %s\n", site.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func limitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Show upload rate limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := requireAPI(cmd)
			if err != nil {
				return err
			}

			limits, err := api.GetLimits(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, l := range []struct {
				name  string
				limit nekoweb.Limit
			}{
				{"general", limits.General},
				{"big_uploads", limits.BigUploads},
				{"zip", limits.Zip},
			} {
				reset := "-"
				if at, ok := l.limit.ResetAt(); ok {
					reset = at.Local().Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%-12s %d/%d remaining, resets %s\n", l.name, l.limit.Remaining, l.limit.Limit, reset)
			}
			return nil
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a remote folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := requireAPI(cmd)
			if err != nil {
				return err
			}

			dir := "/"
			if len(args) == 1 {
				dir = args[0]
			}

			entries, err := api.List(cmd.Context(), dir)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if entry.Dir {
					fmt.Fprintf(cmd.OutOrStdout(), "%s/\n", entry.Name)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), entry.Name)
				}
			}
			return nil
		},
	}
}

// mutation builds a command that runs one write call and prints the
// server's reply.
func mutation(use, short string, nargs int, call func(cmd *cobra.Command, api nekoweb.API, args []string) (*nekoweb.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := requireAPI(cmd)
			if err != nil {
				return err
			}
			resp, err := call(cmd, api, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			return nil
		},
	}
}

func touchCmd() *cobra.Command {
	return mutation("touch <path>", "Create an empty remote file", 1,
		func(cmd *cobra.Command, api nekoweb.API, args []string) (*nekoweb.Response, error) {
			return api.CreateFile(cmd.Context(), args[0])
		})
}

func mkdirCmd() *cobra.Command {
	return mutation("mkdir <path>", "Create a remote folder", 1,
		func(cmd *cobra.Command, api nekoweb.API, args []string) (*nekoweb.Response, error) {
			return api.CreateFolder(cmd.Context(), args[0])
		})
}

func mvCmd() *cobra.Command {
	return mutation("mv <from> <to>", "Rename or move a remote file or folder", 2,
		func(cmd *cobra.Command, api nekoweb.API, args []string) (*nekoweb.Response, error) {
			return api.Rename(cmd.Context(), args[0], args[1])
		})
}

func rmCmd() *cobra.Command {
	return mutation("rm <path>", "Delete a remote file or folder", 1,
		func(cmd *cobra.Command, api nekoweb.API, args []string) (*nekoweb.Response, error) {
			return api.Delete(cmd.Context(), args[0])
		})
}

func editCmd() *cobra.Command {
	return mutation("edit <remote> <local>", "Replace a remote file's content with a local file", 2,
		func(cmd *cobra.Command, api nekoweb.API, args []string) (*nekoweb.Response, error) {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return nil, err
			}
			return api.Edit(cmd.Context(), args[0], content)
		})
}

func importCmd() *cobra.Command {
	return mutation("import <archive>", "Upload a zip archive and extract it into the site", 1,
		func(cmd *cobra.Command, api nekoweb.API, args []string) (*nekoweb.Response, error) {
			f, err := os.Open(args[0])
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return api.ImportStream(cmd.Context(), f)
		})
}

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local> <remote>",
		Short: "Upload a local file, using the big-file flow above big_file_threshold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := loadContainer(cmd)
			if err != nil {
				return err
			}
			api, err := container.RequireAPI()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}

			var resp *nekoweb.Response
			threshold := container.Config.BigFileThreshold
			if threshold > 0 && info.Size() > threshold {
				container.Logger.Infof("%s is %d bytes, using big-file upload", args[0], info.Size())
				resp, err = api.UploadStream(cmd.Context(), args[1], f)
			} else {
				content, readErr := io.ReadAll(f)
				if readErr != nil {
					return readErr
				}
				resp, err = api.UploadFile(cmd.Context(), args[1], content)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			return nil
		},
	}
}

func deployCmd() *cobra.Command {
	var skip []string

	cmd := &cobra.Command{
		Use:   "deploy <local dir> [remote dir]",
		Short: "Upload a local directory tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := loadContainer(cmd)
			if err != nil {
				return err
			}
			api, err := container.RequireAPI()
			if err != nil {
				return err
			}

			remote := "/"
			if len(args) == 2 {
				remote = args[1]
			}

			manager := deploy.NewManager(container.Config, container.Logger, api, nil)
			manager.SetSkipNames(skip)

			report, err := manager.Deploy(cmd.Context(), filepath.Clean(args[0]), remote)
			if report != nil {
				fmt.Fprintln(cmd.OutOrStdout(), report)
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&skip, "skip", deploy.DefaultSkipNames, "File and folder names to leave out")
	return cmd
}

func mockServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local in-memory stand-in for the Nekoweb API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := loadContainer(cmd)
			if err != nil {
				return err
			}

			container.Logger.Infof("Starting gonekoweb mock server, version %s", version)
			server := http.NewServer(container, nil)
			return server.StartWithContext(cmd.Context())
		},
	}
}

func generateConfigCmd() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				var err error
				apiKey, err = utils.PromptAPIKey(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}
			return utils.GenerateConfig(configPath, apiKey)
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to write (prompted for when empty)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gonekoweb version %s\n", version)
		},
	}
}

func requireAPI(cmd *cobra.Command) (nekoweb.API, error) {
	container, err := loadContainer(cmd)
	if err != nil {
		return nil, err
	}
	return container.RequireAPI()
}
