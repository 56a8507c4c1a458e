package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mfulz/setgeist/internal/archive"
	"github.com/mfulz/setgeist/internal/configsets"
	"github.com/mfulz/setgeist/internal/controlcli"
	"github.com/spf13/cobra"
)

var (
	setName    string
	baseSet    string
	properties []string
	overwrite  bool
	cleanup    bool
	filePath   string
	sourcePath string
)

// ConfigSetCmd is the root command for configset subcommands.
var ConfigSetCmd = &cobra.Command{
	Use:     "configset",
	Aliases: []string{"configsets", "cs"},
	Short:   "Manage configsets",
}

var configSetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configsets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := controlcli.ListConfigSets(clientConfig(), target())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if done, err := render(out, outputFormat, map[string][]string{"configSets": names}); done {
			return err
		}
		printNames(out, names)
		return nil
	},
}

func printNames(w io.Writer, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(w, "No configsets.")
		return
	}
	for _, name := range names {
		if configsets.IsAutoCreated(name) {
			fmt.Fprintf(w, "%s\t(auto-created)\n", name)
			continue
		}
		fmt.Fprintln(w, name)
	}
}

var configSetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configset from a base configset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		props, err := parseProperties(properties)
		if err != nil {
			return err
		}
		res, err := controlcli.CreateConfigSet(clientConfig(), target(), controlcli.CreateOptions{
			Name:       setName,
			Base:       baseSet,
			Properties: props,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if done, err := render(out, outputFormat, res); done {
			return err
		}
		fmt.Fprintf(out, "Created configset %s from %s (%d files)\n", res.Name, res.BaseConfigSet, res.Files)
		return nil
	},
}

// parseProperties turns repeated key=value flags into property values;
// a repeated key collects several values.
func parseProperties(in []string) (map[string][]string, error) {
	props := make(map[string][]string, len(in))
	for _, kv := range in {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid property %q, expected key=value", kv)
		}
		props[k] = append(props[k], v)
	}
	return props, nil
}

var configSetDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a configset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := controlcli.DeleteConfigSet(clientConfig(), target(), setName); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted configset %s\n", setName)
		return nil
	},
}

var configSetUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a configset directory, zip archive or single file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := loadPayload(sourcePath, filePath != "")
		if err != nil {
			return err
		}
		res, err := controlcli.UploadConfigSet(clientConfig(), target(), controlcli.UploadOptions{
			Name:      setName,
			FilePath:  filePath,
			Overwrite: overwrite,
			Cleanup:   cleanup,
			Payload:   payload,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if done, err := render(out, outputFormat, res); done {
			return err
		}
		verb := "Updated"
		if res.Created {
			verb = "Created"
		}
		fmt.Fprintf(out, "%s configset %s (%d files written, %d removed)\n", verb, res.Name, len(res.Files), len(res.Removed))
		return nil
	},
}

// loadPayload reads the upload body. Directories are zipped; files are
// sent as they are, which must be a zip archive unless single is set.
func loadPayload(src string, single bool) ([]byte, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		if single {
			return nil, fmt.Errorf("%s is a directory, --file-path needs a single file", src)
		}
		return archive.PackDir(src)
	}
	return os.ReadFile(src)
}

func init() {
	for _, c := range []*cobra.Command{configSetCreateCmd, configSetDeleteCmd, configSetUploadCmd} {
		c.Flags().StringVarP(&setName, "name", "n", "", "Configset name")
		_ = c.MarkFlagRequired("name")
	}

	configSetCreateCmd.Flags().StringVarP(&baseSet, "base", "b", "", "Base configset (daemon default when empty)")
	configSetCreateCmd.Flags().StringArrayVarP(&properties, "prop", "p", nil, "Configset property key=value, repeatable")

	configSetUploadCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configset or file")
	configSetUploadCmd.Flags().BoolVar(&cleanup, "cleanup", false, "Remove files missing from the upload (with --overwrite)")
	configSetUploadCmd.Flags().StringVar(&filePath, "file-path", "", "Upload --file as this single configset file")
	configSetUploadCmd.Flags().StringVarP(&sourcePath, "file", "f", "", "Directory, zip archive or file to upload")
	_ = configSetUploadCmd.MarkFlagRequired("file")

	ConfigSetCmd.AddCommand(configSetListCmd)
	ConfigSetCmd.AddCommand(configSetCreateCmd)
	ConfigSetCmd.AddCommand(configSetDeleteCmd)
	ConfigSetCmd.AddCommand(configSetUploadCmd)
}
