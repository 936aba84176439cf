// Command aviary-skill-gen scans Go source for functions marked with an
// aviary:skill comment and generates companion files declaring the matching
// skill.Definition variables.
//
// Given a file tools.go containing:
//
//	// aviary:skill
//	// Search the web for the given query.
//	func searchWeb(query string) string { ... }
//
// it writes tools.aviary.go declaring:
//
//	var searchWebSkill = skill.Must(searchWeb, ...)
package main

import (
	"bytes"
	"flag"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/swag"
	"github.com/rs/zerolog"
	"mvdan.cc/gofumpt/format"
)

const (
	marker        = "aviary:skill"
	skillPkgPath  = "github.com/casualjim/aviary/skill"
	generatedName = ".aviary.go"
)

var (
	log = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Stamp,
	}).With().Timestamp().Logger()

	osExit = os.Exit
)

func main() {
	path := flag.String("path", ".", "file or directory to scan for aviary:skill markers")
	exported := flag.Bool("exported", false, "export the generated skill variables")
	flag.Parse()

	info, err := os.Stat(*path)
	if err != nil {
		log.Error().Err(err).Str("path", *path).Msg("Error accessing path")
		osExit(1)
		return
	}

	if !info.IsDir() {
		if err := processGoFile(*path, *exported); err != nil {
			osExit(1)
		}
		return
	}

	err = filepath.WalkDir(*path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".go") {
			return nil
		}
		if strings.HasSuffix(p, generatedName) || strings.HasSuffix(p, "_test.go") {
			return nil
		}
		return processGoFile(p, *exported)
	})
	if err != nil {
		osExit(1)
	}
}

// skillFuncInfo captures everything the generator needs about one marked
// function: its name, its doc comment minus the marker line, and its
// parameter fields as parsed.
type skillFuncInfo struct {
	name        string
	comments    []*ast.Comment
	params      []*ast.Field
	exportSkill bool
}

// collectSkills walks a file's declarations and returns one entry per
// function whose doc comment carries the marker.
func collectSkills(fileAST *ast.File, exportSkills bool) []skillFuncInfo {
	var skills []skillFuncInfo
	for _, decl := range fileAST.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}

		var marked bool
		var comments []*ast.Comment
		for _, comment := range fn.Doc.List {
			if strings.Contains(comment.Text, marker) {
				marked = true
				continue
			}
			comments = append(comments, comment)
		}
		if !marked {
			continue
		}

		var params []*ast.Field
		if fn.Type.Params != nil {
			params = fn.Type.Params.List
		}
		skills = append(skills, skillFuncInfo{
			name:        fn.Name.Name,
			comments:    comments,
			params:      params,
			exportSkill: exportSkills,
		})
	}
	return skills
}

// createSkillsFile builds the generated file's AST: the skill package import
// followed by one variable declaration per marked function.
func createSkillsFile(pkgName string, skillFuncs []skillFuncInfo) *ast.File {
	decls := []ast.Decl{
		&ast.GenDecl{
			Tok: token.IMPORT,
			Specs: []ast.Spec{
				&ast.ImportSpec{
					Path: &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(skillPkgPath)},
				},
			},
		},
	}
	for _, fn := range skillFuncs {
		decls = append(decls, createSkillVariableAST(fn))
	}
	return &ast.File{
		Name:  ast.NewIdent(pkgName),
		Decls: decls,
	}
}

// createSkillVariableAST declares `var <name>Skill = skill.Must(<name>, ...)`
// carrying over the function's doc comment. The description comes from the
// comment text, the advertised parameters from the signature with injected
// context.Context and types.Meta parameters skipped.
func createSkillVariableAST(fn skillFuncInfo) ast.Decl {
	varName := fn.name + "Skill"
	if fn.exportSkill {
		varName = swag.ToGoName(fn.name) + "Skill"
	}

	args := []ast.Expr{
		ast.NewIdent(fn.name),
		optionCall("Name", stringLit(fn.name)),
	}
	if desc := descriptionFrom(fn.comments); desc != "" {
		args = append(args, optionCall("Description", stringLit(desc)))
	}
	if params := callerParams(fn.params); len(params) > 0 {
		lits := make([]ast.Expr, len(params))
		for i, p := range params {
			lits[i] = stringLit(p)
		}
		args = append(args, optionCall("Parameters", lits...))
	}

	var doc *ast.CommentGroup
	if len(fn.comments) > 0 {
		doc = &ast.CommentGroup{List: fn.comments}
	}

	return &ast.GenDecl{
		Doc: doc,
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names: []*ast.Ident{ast.NewIdent(varName)},
				Values: []ast.Expr{
					&ast.CallExpr{
						Fun:  &ast.SelectorExpr{X: ast.NewIdent("skill"), Sel: ast.NewIdent("Must")},
						Args: args,
					},
				},
			},
		},
	}
}

func optionCall(name string, args ...ast.Expr) ast.Expr {
	return &ast.CallExpr{
		Fun:  &ast.SelectorExpr{X: ast.NewIdent("skill"), Sel: ast.NewIdent(name)},
		Args: args,
	}
}

func stringLit(s string) ast.Expr {
	return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
}

// descriptionFrom joins the doc comment lines into a single sentence.
func descriptionFrom(comments []*ast.Comment) string {
	var lines []string
	for _, c := range comments {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " ")
}

// callerParams flattens the parameter names callers actually pass, in
// declaration order.
func callerParams(fields []*ast.Field) []string {
	var params []string
	for _, field := range fields {
		if isInjectedType(field.Type) {
			continue
		}
		for _, name := range field.Names {
			params = append(params, name.Name)
		}
	}
	return params
}

func isInjectedType(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	return (pkg.Name == "context" && sel.Sel.Name == "Context") ||
		(pkg.Name == "types" && sel.Sel.Name == "Meta")
}

// processGoFile generates the companion skill file for one source file.
// Files without marked functions produce no output.
func processGoFile(path string, exportSkills bool) error {
	fset := token.NewFileSet()
	fileAST, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error parsing file")
		return err
	}

	skills := collectSkills(fileAST, exportSkills)
	if len(skills) == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by aviary-skill-gen. DO NOT EDIT.\n\n")
	if err := printer.Fprint(&buf, fset, createSkillsFile(fileAST.Name.Name, skills)); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error rendering generated code")
		return err
	}

	formatted, err := format.Source(buf.Bytes(), format.Options{})
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error formatting generated code")
		return err
	}

	outPath := strings.TrimSuffix(path, ".go") + generatedName
	if err := os.WriteFile(outPath, formatted, 0o644); err != nil {
		log.Error().Err(err).Str("file", outPath).Msg("Error writing generated file")
		return err
	}

	log.Info().Str("file", outPath).Msg("Generated file")
	return nil
}
