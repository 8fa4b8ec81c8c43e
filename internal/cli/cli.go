// Package cli provides the headless command-line interface: every session
// operation is reachable without the interactive UI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/quotetpl/quotetpl/internal/document"
	"github.com/quotetpl/quotetpl/internal/models"
	"github.com/quotetpl/quotetpl/internal/service"
)

// CLI dispatches headless commands against a session
type CLI struct {
	session *service.Session
}

// NewCLI creates a new CLI instance
func NewCLI(session *service.Session) *CLI {
	return &CLI{session: session}
}

// ExecuteCommand processes a CLI command and returns the result
func (c *CLI) ExecuteCommand(args []string) error {
	if len(args) == 0 {
		return c.printUsage()
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "list", "ls":
		return c.listTemplates(commandArgs)
	case "search":
		return c.searchTemplates(commandArgs)
	case "show":
		return c.showTemplate(commandArgs)
	case "open", "use":
		return c.openTemplate(commandArgs)
	case "new":
		return c.newTemplate(commandArgs)
	case "delete", "rm":
		return c.deleteTemplate(commandArgs)
	case "rename":
		return c.renameTemplate(commandArgs)
	case "direction":
		return c.setDirection(commandArgs)
	case "field":
		return c.handleField(commandArgs)
	case "set":
		return c.setValue(commandArgs)
	case "values":
		return c.showValues(commandArgs)
	case "const":
		return c.handleConstant(commandArgs)
	case "preset":
		return c.handlePreset(commandArgs)
	case "export":
		return c.exportTemplate(commandArgs)
	case "import":
		return c.importTemplate(commandArgs)
	case "render":
		return c.renderTemplate(commandArgs)
	case "pdf":
		return c.exportPDF(commandArgs)
	case "filename":
		return c.pdfFileName(commandArgs)
	case "copy":
		return c.copyText()
	case "help":
		return c.printUsage()
	default:
		return fmt.Errorf("unknown command: %s. Use 'help' for usage information", command)
	}
}

// listTemplates lists all stored templates
func (c *CLI) listTemplates(args []string) error {
	format := flagValue(args, "--format", "-f")
	templates, err := c.session.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	return c.printTemplates(templates, format)
}

// searchTemplates finds templates by fuzzy match
func (c *CLI) searchTemplates(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query")
	}
	format := flagValue(args, "--format", "-f")
	query := strings.Join(stripFlags(args), " ")
	templates, err := c.session.SearchTemplates(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return c.printTemplates(templates, format)
}

func (c *CLI) printTemplates(templates []*models.Template, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(templates, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	if len(templates) == 0 {
		fmt.Println("No templates found")
		return nil
	}
	active := c.session.ActiveTemplate()
	for _, t := range templates {
		marker := "  "
		if active != nil && active.ID == t.ID {
			marker = "* "
		}
		fmt.Printf("%s%s  %s\n", marker, t.ID, t.Title())
		if desc := t.Description(); desc != "" {
			fmt.Printf("    %s\n", desc)
		}
	}
	return nil
}

// showTemplate prints the active template in detail
func (c *CLI) showTemplate(args []string) error {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if err := c.session.OpenTemplate(args[0]); err != nil {
			return err
		}
	}
	t := c.session.ActiveTemplate()
	if t == nil {
		return fmt.Errorf("no template is open")
	}
	fmt.Printf("Template: %s (%s)\n", t.Name, t.ID)
	if t.DocName != "" {
		fmt.Printf("Document: %s\n", t.DocName)
	}
	fmt.Printf("Direction: %s (effective: %s)\n", t.TextDirection, c.session.EffectiveDirection())
	if len(t.Fields) > 0 {
		fmt.Println("Fields:")
		for _, f := range t.Fields {
			line := fmt.Sprintf("  %s  %s (%s)", f.ID, f.Name, f.Type)
			if f.Type == models.FieldTypeFormula {
				line += " = " + f.Formula
			}
			fmt.Println(line)
		}
	}
	if len(t.Constants) > 0 {
		fmt.Println("Constants:")
		for i, con := range t.Constants {
			fmt.Printf("  [%d] %s = %s\n", i, con.Name, con.Value)
		}
	}
	if dups := c.session.DuplicateNames(); len(dups) > 0 {
		fmt.Printf("Warning: duplicate names (later definitions win): %s\n", strings.Join(dups, ", "))
	}
	return nil
}

// openTemplate switches the active template
func (c *CLI) openTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("open requires a template ID")
	}
	if err := c.session.OpenTemplate(args[0]); err != nil {
		return err
	}
	fmt.Printf("Opened template %s\n", args[0])
	return nil
}

// newTemplate imports a document as a fresh template
func (c *CLI) newTemplate(args []string) error {
	name := flagValue(args, "--name", "-n")
	textPath := flagValue(args, "--text", "-t")
	docxPath := flagValue(args, "--docx", "-d")

	var t *models.Template
	var err error
	switch {
	case docxPath != "":
		data, readErr := os.ReadFile(docxPath)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", docxPath, readErr)
		}
		if name == "" {
			name = docxPath
		}
		t, err = c.session.NewFromDocx(name, data)
	case textPath != "":
		data, readErr := os.ReadFile(textPath)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", textPath, readErr)
		}
		if name == "" {
			name = textPath
		}
		t, err = c.session.NewFromText(name, string(data))
	default:
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return fmt.Errorf("failed to read stdin: %w", readErr)
		}
		t, err = c.session.NewFromText(name, string(data))
	}
	if err != nil {
		return err
	}
	fmt.Printf("Created template %s (%s)\n", t.Name, t.ID)
	return nil
}

// deleteTemplate removes a template
func (c *CLI) deleteTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("delete requires a template ID")
	}
	if err := c.session.DeleteTemplate(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted template %s\n", args[0])
	return nil
}

// renameTemplate changes the active template name
func (c *CLI) renameTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("rename requires a name")
	}
	return c.session.RenameTemplate(strings.Join(args, " "))
}

// setDirection changes or prints the text direction
func (c *CLI) setDirection(args []string) error {
	if len(args) == 0 {
		fmt.Println(c.session.EffectiveDirection())
		return nil
	}
	dir := models.TextDirection(args[0])
	if dir != dir.Normalize() {
		return fmt.Errorf("direction must be auto, ltr or rtl")
	}
	return c.session.SetTextDirection(dir)
}

// handleField dispatches field subcommands
func (c *CLI) handleField(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("field requires a subcommand: add, list, find, apply, set, rm")
	}
	switch args[0] {
	case "add":
		return c.addField(args[1:])
	case "list", "ls":
		return c.listFields()
	case "find":
		return c.findOccurrences(args[1:])
	case "apply":
		return c.applyField(args[1:])
	case "set":
		return c.updateField(args[1:])
	case "rm", "delete":
		return c.removeField(args[1:])
	default:
		return fmt.Errorf("unknown field subcommand: %s", args[0])
	}
}

// addField anchors a field onto a selection given as rune offsets
func (c *CLI) addField(args []string) error {
	startStr := flagValue(args, "--start", "-s")
	endStr := flagValue(args, "--end", "-e")
	if startStr == "" || endStr == "" {
		return fmt.Errorf("field add requires --start and --end offsets (see 'field find')")
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return fmt.Errorf("invalid --start offset: %s", startStr)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return fmt.Errorf("invalid --end offset: %s", endStr)
	}

	spec := service.FieldSpec{
		Name:          flagValue(args, "--name", "-n"),
		Type:          models.FieldType(flagValue(args, "--type", "-t")),
		Formula:       flagValue(args, "--formula", ""),
		ApplyToAll:    hasFlag(args, "--all", "-a"),
		CaseSensitive: hasFlag(args, "--case", "-c"),
	}
	result, err := c.session.CreateField(document.Selection{Start: start, End: end}, spec)
	if err != nil {
		return err
	}
	fmt.Printf("Created field %s (%s)\n", result.Field.Name, result.Field.ID)
	if result.Extra > 0 {
		fmt.Printf("Wrapped %d additional occurrence(s)\n", result.Extra)
	}
	return nil
}

// listFields prints every field with its computed value
func (c *CLI) listFields() error {
	displays, err := c.session.FieldDisplays()
	if err != nil {
		return err
	}
	if len(displays) == 0 {
		fmt.Println("No fields defined")
		return nil
	}
	for _, d := range displays {
		value := d.Display.Text
		if d.Display.Err {
			value = "#ERR (" + d.Display.Message + ")"
		}
		fmt.Printf("%s  %s (%s) = %s\n", d.Field.ID, d.Field.Name, d.Field.Type, value)
	}
	return nil
}

// findOccurrences prints selection offsets for a literal
func (c *CLI) findOccurrences(args []string) error {
	clean := stripFlags(args)
	if len(clean) == 0 {
		return fmt.Errorf("field find requires the text to look for")
	}
	text := strings.Join(clean, " ")
	offsets, err := c.session.FindOccurrences(text, hasFlag(args, "--case", "-c"))
	if err != nil {
		return err
	}
	if len(offsets) == 0 {
		fmt.Println("No occurrences found")
		return nil
	}
	n := len([]rune(text))
	for _, off := range offsets {
		fmt.Printf("--start %d --end %d\n", off, off+n)
	}
	return nil
}

// applyField wraps remaining occurrences of a field's match text
func (c *CLI) applyField(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("field apply requires a field ID")
	}
	n, err := c.session.ApplyField(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Wrapped %d occurrence(s)\n", n)
	return nil
}

// updateField edits a field definition
func (c *CLI) updateField(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("field set requires a field ID")
	}
	id := args[0]
	rest := args[1:]
	return c.session.UpdateField(id,
		flagValue(rest, "--name", "-n"),
		models.FieldType(flagValue(rest, "--type", "-t")),
		flagValue(rest, "--formula", ""))
}

// removeField deletes a field and unwraps its markers
func (c *CLI) removeField(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("field rm requires a field ID")
	}
	if err := c.session.DeleteField(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted field %s\n", args[0])
	return nil
}

// setValue records a field's raw input value
func (c *CLI) setValue(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("set requires a field ID and a value")
	}
	return c.session.SetValue(args[0], strings.Join(args[1:], " "))
}

// showValues prints every field's computed display value
func (c *CLI) showValues(args []string) error {
	if hasFlag(args, "--context", "") {
		ctx, err := c.session.FormulaContext()
		if err != nil {
			return err
		}
		names := make([]string, 0, len(ctx))
		for name := range ctx {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s = %v\n", name, ctx[name])
		}
		return nil
	}
	if flagValue(args, "--format", "-f") == "json" {
		displays, err := c.session.FieldDisplays()
		if err != nil {
			return err
		}
		out := map[string]string{}
		for _, d := range displays {
			if d.Display.Err {
				out[d.Field.Name] = "#ERR"
			} else {
				out[d.Field.Name] = d.Display.Text
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	return c.listFields()
}

// handleConstant dispatches constant subcommands
func (c *CLI) handleConstant(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("const requires a subcommand: add, list, set, rm")
	}
	switch args[0] {
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("const add requires a name and a value")
		}
		return c.session.AddConstant(args[1], strings.Join(args[2:], " "))
	case "list", "ls":
		t := c.session.ActiveTemplate()
		if t == nil {
			return fmt.Errorf("no template is open")
		}
		for i, con := range t.Constants {
			fmt.Printf("[%d] %s = %s\n", i, con.Name, con.Value)
		}
		return nil
	case "set":
		if len(args) < 4 {
			return fmt.Errorf("const set requires an index, a name and a value")
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid constant index: %s", args[1])
		}
		return c.session.UpdateConstant(idx, args[2], strings.Join(args[3:], " "))
	case "rm", "delete":
		if len(args) < 2 {
			return fmt.Errorf("const rm requires an index")
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid constant index: %s", args[1])
		}
		return c.session.RemoveConstant(idx)
	default:
		return fmt.Errorf("unknown const subcommand: %s", args[0])
	}
}

// handlePreset dispatches preset subcommands
func (c *CLI) handlePreset(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("preset requires a subcommand: save, list, load, rm")
	}
	switch args[0] {
	case "save":
		name := strings.Join(args[1:], " ")
		p, err := c.session.SavePreset(name)
		if err != nil {
			return err
		}
		fmt.Printf("Saved preset %s (%s)\n", p.Name, p.ID)
		return nil
	case "list", "ls":
		presets, err := c.session.ListPresets()
		if err != nil {
			return err
		}
		if len(presets) == 0 {
			fmt.Println("No presets saved")
			return nil
		}
		for _, p := range presets {
			fmt.Printf("%s  %s\n", p.ID, p.Name)
		}
		return nil
	case "load":
		if len(args) < 2 {
			return fmt.Errorf("preset load requires a preset ID")
		}
		return c.session.LoadPreset(args[1])
	case "rm", "delete":
		if len(args) < 2 {
			return fmt.Errorf("preset rm requires a preset ID")
		}
		return c.session.DeletePreset(args[1])
	default:
		return fmt.Errorf("unknown preset subcommand: %s", args[0])
	}
}

// exportTemplate writes the interchange file
func (c *CLI) exportTemplate(args []string) error {
	data, filename, err := c.session.ExportTemplate()
	if err != nil {
		return err
	}
	if out := flagValue(args, "--output", "-o"); out != "" {
		filename = out
	}
	if filename == "-" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	fmt.Printf("Exported to %s\n", filename)
	return nil
}

// importTemplate loads an interchange file as a new template
func (c *CLI) importTemplate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("import requires a file path")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	t, err := c.session.ImportTemplate(data)
	if err != nil {
		return err
	}
	fmt.Printf("Imported template %s (%s)\n", t.Name, t.ID)
	return nil
}

// renderTemplate prints the filled document
func (c *CLI) renderTemplate(args []string) error {
	if hasFlag(args, "--html", "") {
		html, err := c.session.FilledHTML()
		if err != nil {
			return err
		}
		fmt.Println(html)
		return nil
	}
	text, err := c.session.FilledText()
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// exportPDF writes the filled document as a PDF
func (c *CLI) exportPDF(args []string) error {
	filename := flagValue(args, "--output", "-o")
	if filename == "" {
		filename = c.session.PDFFileName()
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()
	if err := c.session.ExportPDF(f); err != nil {
		return err
	}
	fmt.Printf("Exported PDF to %s\n", filename)
	return nil
}

// pdfFileName shows or records the preferred PDF output name
func (c *CLI) pdfFileName(args []string) error {
	if len(args) == 0 {
		fmt.Println(c.session.PDFFileName())
		return nil
	}
	if err := c.session.SetExportFileName(strings.Join(args, " ")); err != nil {
		return err
	}
	fmt.Printf("PDF file name set to %s\n", c.session.PDFFileName())
	return nil
}

// copyText copies the filled document text to the clipboard
func (c *CLI) copyText() error {
	if err := c.session.CopyText(); err != nil {
		return err
	}
	fmt.Println("Copied to clipboard!")
	return nil
}

func (c *CLI) printUsage() error {
	fmt.Print(`quotetpl - anchor fields into a document and fill them from values and formulas

Usage: quotetpl <command> [arguments]

Templates:
  list [--format json]          List stored templates
  search <query>                Fuzzy-search templates
  show [id]                     Show the active (or given) template
  open <id>                     Switch the active template
  new [--name N] [--text F | --docx F]
                                Import a document (stdin when no file given)
  rename <name>                 Rename the active template
  delete <id>                   Delete a template and its presets
  direction [auto|ltr|rtl]      Show or set the text direction

Fields:
  field find <text> [--case]    Print selection offsets for a literal
  field add --start N --end N [--name X] [--type text|number|date|formula]
            [--formula EXPR] [--all] [--case]
  field list                    List fields with computed values
  field apply <id>              Wrap remaining occurrences of the match text
  field set <id> [--name X] [--type T] [--formula EXPR]
  field rm <id>                 Delete a field (markers unwrap to plain text)
  set <fieldId> <value>         Record a field's input value
  values [--format json]        Print computed values
  values --context              Print the formula evaluation context

Constants and presets:
  const add <name> <value>      Add a formula constant
  const list | set | rm         Manage constants
  preset save <name>            Snapshot current values
  preset list | load | rm       Manage presets

Output:
  export [-o file]              Write the template interchange file
  import <file>                 Load an interchange file as a new template
  render [--html]               Print the filled document
  pdf [-o file]                 Export the filled document as a PDF
  filename [name]               Show or set the preferred PDF file name
  copy                          Copy the filled text to the clipboard
`)
	return nil
}

// flagValue scans args for a --flag value pair
func flagValue(args []string, long, short string) string {
	for i, arg := range args {
		if (arg == long || (short != "" && arg == short)) && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// hasFlag reports whether a boolean flag is present
func hasFlag(args []string, long, short string) bool {
	for _, arg := range args {
		if arg == long || (short != "" && arg == short) {
			return true
		}
	}
	return false
}

// stripFlags drops flags and their values from args
func stripFlags(args []string) []string {
	var out []string
	skip := false
	for _, arg := range args {
		if skip {
			skip = false
			continue
		}
		if strings.HasPrefix(arg, "-") {
			switch arg {
			case "--case", "-c", "--all", "-a", "--html":
			default:
				skip = true
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}
