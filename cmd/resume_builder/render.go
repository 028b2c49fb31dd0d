package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/profile"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an agent response to HTML or PDF",
	Long: `Renders the resume contained in a saved agent response without a server.
Contact details missing from the resume are filled from the profile record.`,
	RunE: runRender,
}

var (
	renderResponseFile string
	renderProfileFile  string
	renderTemplate     string
	renderOutputFile   string
	renderPDF          bool
	renderChromePath   string
)

func init() {
	renderCmd.Flags().StringVarP(&renderResponseFile, "response", "r", "", "Path to agent response JSON file (required)")
	renderCmd.Flags().StringVarP(&renderProfileFile, "profile", "p", "", "Path to profile record JSON file (optional)")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", string(types.TemplateProfessional), "Layout name or gallery id")
	renderCmd.Flags().StringVarP(&renderOutputFile, "out", "o", "", "Output file (default stdout)")
	renderCmd.Flags().BoolVar(&renderPDF, "pdf", false, "Print to PDF with headless Chrome")
	renderCmd.Flags().StringVar(&renderChromePath, "chrome", "", "Chrome binary for --pdf")

	_ = renderCmd.MarkFlagRequired("response")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(renderResponseFile)
	if err != nil {
		return fmt.Errorf("failed to read agent response: %w", err)
	}
	var profileRaw []byte
	if renderProfileFile != "" {
		if profileRaw, err = os.ReadFile(renderProfileFile); err != nil {
			return fmt.Errorf("failed to read profile: %w", err)
		}
	}

	var pdf export.PDFRenderer
	if renderPDF {
		pdf = export.NewChromeRenderer(renderChromePath)
	}

	out := cmd.OutOrStdout()
	if renderOutputFile != "" {
		f, err := os.Create(renderOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	return renderDocument(context.Background(), out, raw, profileRaw, renderTemplate, pdf)
}

// renderDocument writes the HTML fragment, or a PDF when pdf is non-nil.
func renderDocument(ctx context.Context, out io.Writer, raw, profileRaw []byte, template string, pdf export.PDFRenderer) error {
	selector, err := types.ParseTemplateSelector(template)
	if err != nil {
		return err
	}
	reply, err := parsing.ParseAgentReply(raw)
	if err != nil {
		return err
	}
	for _, w := range reply.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	identity := profile.Extract(profileRaw)
	html, err := rendering.Render(reply.Resume, identity, selector)
	if err != nil {
		return err
	}
	if pdf == nil {
		_, err = io.WriteString(out, html)
		return err
	}

	title := "Resume"
	if reply.Resume != nil {
		if name := rendering.MergeIdentity(reply.Resume.PersonalInfo, identity).Name; name != fields.PlaceholderName {
			title = name + " - Resume"
		}
	}
	doc, err := export.WrapDocument(title, html)
	if err != nil {
		return err
	}
	data, err := pdf.RenderPDF(ctx, doc)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
