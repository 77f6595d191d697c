package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle"
	"github.com/rawbytedev/pickle/internal/schema"
	"github.com/rawbytedev/pickle/pkg/compactwire"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type dumpFlags struct {
	schemaPath string
	headerSize int
	framed     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pickledump",
		Short: "Inspect pickle files",
		Long: `pickledump prints the header of a pickle and decodes its payload,
either field by field with a TOML schema or as raw 4-byte words.`,
		SilenceUsage: true,
	}
	root.AddCommand(newDumpCmd())
	return root
}

func newDumpCmd() *cobra.Command {
	var f dumpFlags
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the contents of a pickle file or frame stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.OutOrStdout(), args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.schemaPath, "schema", "s", "", "TOML schema describing the payload fields")
	cmd.Flags().IntVar(&f.headerSize, "header-size", 0, "header size in bytes when no schema is given")
	cmd.Flags().BoolVar(&f.framed, "framed", false, "FILE is a stream of compactwire frames")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log frame events to stderr")
	return cmd
}

func runDump(out io.Writer, path string, f dumpFlags) error {
	var sc *schema.Schema
	opts := pickle.Options{HeaderSize: f.headerSize}
	if f.schemaPath != "" {
		var err error
		if sc, err = schema.Load(f.schemaPath); err != nil {
			return err
		}
		opts = sc.Options()
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer file.Close()

	if !f.framed {
		raw, err := io.ReadAll(file)
		if err != nil {
			return errors.Wrap(err, "read input")
		}
		p, err := pickle.NewPickle(raw, opts)
		if err != nil {
			return err
		}
		return dumpPickle(out, p, sc)
	}

	logger := zap.NewNop()
	if f.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return errors.Wrap(err, "logger")
		}
		defer func() { _ = logger.Sync() }()
	}
	r := compactwire.NewReader(file, compactwire.Options{Logger: logger, Pickle: opts})
	for n := 0; ; n++ {
		p, err := r.ReadPickle()
		if err == io.EOF {
			return nil
		}
		var remote *compactwire.RemoteError
		if errors.As(err, &remote) {
			fmt.Fprintf(out, "frame %d: error %d: %s\n", n, remote.Code, remote.Message)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "frame %d", n)
		}
		fmt.Fprintf(out, "frame %d:\n", n)
		if err := dumpPickle(out, p, sc); err != nil {
			return errors.Wrapf(err, "frame %d", n)
		}
	}
}

func dumpPickle(out io.Writer, p *pickle.Pickle, sc *schema.Schema) error {
	fmt.Fprintf(out, "header_size: %d\npayload_size: %d\n", p.HeaderSize(), p.PayloadSize())
	if meta := p.HeaderMetadata(); len(meta) > 0 {
		fmt.Fprintf(out, "metadata: %s\n", hex.EncodeToString(meta))
	}
	if sc == nil {
		dumpWords(out, p.Payload())
		return nil
	}
	values, err := sc.Decode(p)
	for _, v := range values {
		fmt.Fprintf(out, "  %s (%s): %s\n", v.Field.Name, v.Field, formatValue(v.V))
	}
	return err
}

// dumpWords prints the payload as little-endian 4-byte words, 4 per line.
func dumpWords(out io.Writer, payload []byte) {
	for off := 0; off < len(payload); off += 16 {
		end := min(off+16, len(payload))
		fmt.Fprintf(out, "  %08x:", off)
		for w := off; w < end; w += 4 {
			fmt.Fprintf(out, " %s", hex.EncodeToString(payload[w:min(w+4, end)]))
		}
		fmt.Fprintln(out)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []byte:
		return hex.EncodeToString(x)
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprint(x)
	}
}
