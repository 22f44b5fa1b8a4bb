package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"policynav-backend/config"
	"policynav-backend/normalize"
	"policynav-backend/storage"
)

var (
	errNoSessionID   = errors.New("no session id found")
	errNoStoragePath = errors.New("--archived needs a storage path argument")
)

func newRootCmd() *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:   "normalize",
		Short: "Replay captured webhook bodies through response normalization",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().Bool("archived", false, "Treat the argument as an archive storage path and replay the stored body")
	root.PersistentFlags().Bool("prune", false, "With --archived, delete the record once it has been read")

	root.AddCommand(
		newPolicyCmd(),
		newTurnCmd(),
		newSchemesCmd(),
		newSessionIDCmd(),
	)
	return root
}

func newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy [file]",
		Short: "Extract the policy record from an upload response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, args)
			if err != nil {
				return err
			}

			decoded := normalize.Decode(body, normalize.HasPolicy)
			match, ok := normalize.FindPolicy(decoded.Tree())
			out := cmd.OutOrStdout()
			switch {
			case !ok:
				fmt.Fprintln(out, color.YellowString("no policy found"))
				return nil
			case match.LooseMatch:
				fmt.Fprintln(out, color.YellowString("matched on session_id only"))
			case match.FromText:
				fmt.Fprintln(out, color.CyanString("extracted from document text"))
			}
			return writeJSON(out, match.Record)
		},
	}
}

func newTurnCmd() *cobra.Command {
	var noContent bool

	cmd := &cobra.Command{
		Use:   "turn [file]",
		Short: "Interpret a chat response as the next question or a verdict",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if noContent {
				fmt.Fprintln(out, color.GreenString("COMPLETE"))
				return nil
			}
			body, err := readBody(cmd, args)
			if err != nil {
				return err
			}

			turn := normalize.InterpretChatResponse(body)
			if !turn.IsComplete() {
				fmt.Fprintf(out, "%s %s\n", color.CyanString("QUESTION"), turn.Question)
				return nil
			}
			if turn.Result == nil {
				fmt.Fprintln(out, color.GreenString("COMPLETE"))
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", color.GreenString("VERDICT"), turn.Result.Status)
			return writeJSON(out, turn.Result)
		},
	}
	cmd.Flags().BoolVar(&noContent, "no-content", false, "Treat the response as HTTP 204")
	return cmd
}

func newSchemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemes [file]",
		Short: "Extract recommended schemes from a discovery response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), normalize.ExtractSchemes(body))
		},
	}
}

func newSessionIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session-id [file]",
		Short: "Find the session id carried by a response",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, args)
			if err != nil {
				return err
			}
			id, ok := normalize.FindSessionID(normalize.Decode(body, nil).Tree())
			if !ok {
				return errNoSessionID
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

// readBody reads the file named by args[0], or stdin when no file or "-" is
// given. With --archived args[0] is a storage path in the configured
// response archive.
func readBody(cmd *cobra.Command, args []string) (string, error) {
	if archived, _ := cmd.Flags().GetBool("archived"); archived {
		return readArchived(cmd, args)
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func readArchived(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		return "", errNoStoragePath
	}
	archive, err := openArchive()
	if err != nil {
		return "", err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rec, err := archive.Get(ctx, args[0])
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	if prune, _ := cmd.Flags().GetBool("prune"); prune {
		if err := archive.Delete(ctx, args[0]); err != nil {
			return "", err
		}
	}
	return rec.Body, nil
}

// openArchive opens the archive the server writes to. With archiving
// disabled the local archive path is read.
func openArchive() (storage.Archive, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	archiveCfg := cfg.Archive
	if archiveCfg.Type == storage.ArchiveTypeNone || archiveCfg.Type == "" {
		archiveCfg.Type = storage.ArchiveTypeLocal
	}
	return storage.NewArchive(archiveCfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
