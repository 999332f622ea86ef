package main

import (
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/dgallion1/md2docx/internal/branding"
)

// commonFlags holds flags that shape the run rather than the document.
type commonFlags struct {
	config  string
	verbose bool
}

// documentFlags holds metadata and header/footer overrides.
type documentFlags struct {
	title         string
	author        string
	company       string
	header        string
	footer        string
	noPageNumbers bool
}

// fontFlags holds body font overrides.
type fontFlags struct {
	name string
	size float64
}

// imageFlags holds remote image policy.
type imageFlags struct {
	allowHosts []string
	timeout    time.Duration
}

// modeFlags select an alternative action instead of conversion.
type modeFlags struct {
	ast            bool
	generateConfig string
	inspect        string
	version        bool
}

type cliFlags struct {
	common   commonFlags
	document documentFlags
	font     fontFlags
	images   imageFlags
	mode     modeFlags

	// set records which flags were given explicitly.
	set map[string]bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "style config file (JSON or YAML)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log progress to stderr")
}

func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title")
	fs.StringVar(&f.author, "author", "", "document author")
	fs.StringVar(&f.company, "company", "", "company name")
	fs.StringVar(&f.header, "header", "", "centered header text")
	fs.StringVar(&f.footer, "footer", "", "centered footer text")
	fs.BoolVar(&f.noPageNumbers, "no-page-numbers", false, "omit the page number field from the footer")
}

func addFontFlags(fs *flag.FlagSet, f *fontFlags) {
	fs.StringVar(&f.name, "font", "", "body font name")
	fs.Float64Var(&f.size, "font-size", 0, "body font size in points")
}

func addImageFlags(fs *flag.FlagSet, f *imageFlags) {
	fs.StringSliceVar(&f.allowHosts, "allow-image-host", nil, "host allowed for remote images (repeatable)")
	fs.DurationVar(&f.timeout, "image-timeout", 30*time.Second, "timeout for each remote image")
}

func addModeFlags(fs *flag.FlagSet, f *modeFlags) {
	fs.BoolVar(&f.ast, "ast", false, "print the parsed document tree and exit")
	fs.StringVar(&f.generateConfig, "generate-config", "", "write a sample style config to `FILE` and exit")
	fs.StringVar(&f.inspect, "inspect", "", "print the outline of `FILE.docx` and exit")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
}

// parseFlags parses args (without the program name) and returns the
// positional arguments.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("md2docx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &cliFlags{set: map[string]bool{}}

	addCommonFlags(fs, &f.common)
	addDocumentFlags(fs, &f.document)
	addFontFlags(fs, &f.font)
	addImageFlags(fs, &f.images)
	addModeFlags(fs, &f.mode)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: md2docx [flags] INPUT [OUTPUT]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, fs.Args(), nil
}

// overrides converts explicitly set flags into style overrides. Flags
// left at their defaults do not touch the configuration.
func (f *cliFlags) overrides() *branding.Overrides {
	o := &branding.Overrides{}
	if f.set["title"] {
		o.Title = &f.document.title
	}
	if f.set["author"] {
		o.Author = &f.document.author
	}
	if f.set["company"] {
		o.Company = &f.document.company
	}
	if f.set["header"] {
		o.Header = &branding.HeaderFooterOverrides{Text: &f.document.header}
	}
	if f.set["footer"] || f.set["no-page-numbers"] {
		o.Footer = &branding.HeaderFooterOverrides{}
		if f.set["footer"] {
			o.Footer.Text = &f.document.footer
		}
		if f.document.noPageNumbers {
			off := false
			o.Footer.IncludePageNumber = &off
		}
	}
	if f.set["font"] || f.set["font-size"] {
		o.BodyFont = &branding.FontOverrides{}
		if f.set["font"] {
			o.BodyFont.Name = &f.font.name
		}
		if f.set["font-size"] {
			o.BodyFont.Size = &f.font.size
		}
	}
	return o
}
