package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gdpack/internal/keydecode"
	"gdpack/internal/pckformat"
)

func newInspectCmd() *cobra.Command {
	var (
		pckStart int64
		keyHex   string
	)

	cmd := &cobra.Command{
		Use:   "inspect <pck-path>",
		Short: "List the directory entries of a PCK archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key []byte
			if keyHex != "" {
				k := keydecode.Decode(keyHex)
				key = k[:]
			}

			arc, err := pckformat.Open(args[0], pckStart, key)
			if err != nil {
				errColor.Fprintln(os.Stderr, err)
				return err
			}
			defer arc.Close()

			successColor.Fprintf(os.Stdout, "format version %d, %d entries, files_base=0x%x\n",
				arc.Header.FormatVersion, len(arc.Entries), arc.Header.FilesBase)
			for _, e := range arc.Entries {
				flag := " "
				if e.Encrypted() {
					flag = "E"
				}
				fmt.Printf("%s %10d  %x  %s\n", flag, e.Size, e.MD5, e.Path)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&pckStart, "pck-start", 0, "Byte offset of the PCK header (nonzero for an embedded PCK)")
	cmd.Flags().StringVar(&keyHex, "key", "", "64-hex-character AES-256 key, if the directory is encrypted")

	return cmd
}
