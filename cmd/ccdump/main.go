// Command ccdump is a tiny demonstration driver: it builds a small
// translation unit directly as Go struct literals (the lexer/parser that
// would normally produce one is out of scope for this module), runs it
// through cgen, and prints the diagnostic stream followed by a textual
// dump of the generated IR. Passing -llvm also lowers the finished module
// through backend/llvmemit and prints the resulting LLVM IR text.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"cscore/ast"
	"cscore/cgen"
	"cscore/token"

	"cscore/backend/llvmemit"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// options holds the parsed command line flags.
type options struct {
	LLVM bool
	Out  string
}

const appVersion = "ccdump 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// parseArgs parses command line arguments by hand, the way util/args.go
// does for the teacher's compiler: no flags library, a small switch over
// a handful of recognized spellings.
func parseArgs(args []string) (options, error) {
	var opt options
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--h", "-help", "--help":
			printHelp()
			os.Exit(0)
		case "-v", "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-llvm":
			opt.LLVM = true
		case "-o":
			if i+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i])
			}
			opt.Out = args[i+1]
			i++
		default:
			return opt, fmt.Errorf("unexpected flag: %s", args[i])
		}
	}
	return opt, nil
}

func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints the application version and exits.")
	_, _ = fmt.Fprintln(w, "-llvm\tAlso lower the generated IR through the LLVM backend adapter.")
	_, _ = fmt.Fprintln(w, "-o\tPath to write output to; stdout if omitted.")
	_ = w.Flush()
}

func main() {
	opt, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("command line argument error: %s\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if opt.Out != "" {
		f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("could not open output file: %s\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	ctx := cgen.New("demo")
	ctx.Compile(demoTranslationUnit())

	for _, d := range ctx.Diagnostics {
		fmt.Fprint(out, d.String())
	}
	if !ctx.Success() {
		os.Exit(1)
	}

	fmt.Fprintln(out, "; -- generated IR --")
	for _, p := range ctx.Module.Procs() {
		fmt.Fprint(out, p.String())
	}

	if opt.LLVM {
		mod, err := llvmemit.Emit(ctx.Module)
		if err != nil {
			fmt.Printf("LLVM lowering error: %s\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(out, "; -- LLVM IR --")
		fmt.Fprintln(out, mod.String())
	}
}

// tok synthesizes a single-line, single-token source range at (line, col)
// with the given lexeme text, in the fictitious source file "demo.c".
func tok(line, col int, text string) token.Token {
	return token.Token{
		File:  "demo.c",
		Text:  text,
		Start: token.Pos{Line: line, Col: col},
		End:   token.Pos{Line: line, Col: col + len(text)},
		Ident: text,
	}
}

// demoTranslationUnit builds the AST for:
//
//	int add(int a, int b) {
//	    return a + b;
//	}
//
//	int main(void) {
//	    return add(2, 3);
//	}
func demoTranslationUnit() *ast.TranslationUnit {
	intSpecs := ast.DeclSpecs{HasBasic: true, Basic: ast.TSInt}

	param := func(line, col int, name string) *ast.ParamDecl {
		nt := tok(line, col, name)
		return &ast.ParamDecl{
			Specs: intSpecs,
			Declarator: &ast.Declarator{
				First: nt, Last: nt,
				Kind: ast.DeclIdent, NameTok: nt, Name: name,
			},
		}
	}

	ident := func(line, col int, name string) *ast.Ident {
		return &ast.Ident{Tok: tok(line, col, name), Name: name}
	}

	add := &ast.FuncDef{
		First: tok(1, 1, "int"), Last: tok(3, 1, "}"),
		Specs: intSpecs,
		Declarator: &ast.Declarator{
			First: tok(1, 5, "add"), Last: tok(1, 20, ")"),
			Kind: ast.DeclFunction,
			Inner: &ast.Declarator{
				First: tok(1, 5, "add"), Last: tok(1, 8, "add"),
				Kind: ast.DeclIdent, NameTok: tok(1, 5, "add"), Name: "add",
			},
			Params:     []*ast.ParamDecl{param(1, 9, "a"), param(1, 16, "b")},
			NamedCount: 2,
		},
		Body: &ast.Block{
			First: tok(2, 1, "{"), Last: tok(2, 20, "}"),
			Items: []ast.Stmt{
				&ast.ReturnStmt{
					First: tok(2, 5, "return"), Last: tok(2, 18, ";"),
					Value: &ast.BinaryExpr{
						OpTok: tok(2, 14, "+"), Op: ast.OpAdd,
						X: ident(2, 12, "a"), Y: ident(2, 16, "b"),
					},
				},
			},
		},
	}

	mainFn := &ast.FuncDef{
		First: tok(5, 1, "int"), Last: tok(7, 1, "}"),
		Specs: intSpecs,
		Declarator: &ast.Declarator{
			First: tok(5, 5, "main"), Last: tok(5, 13, ")"),
			Kind: ast.DeclFunction,
			Inner: &ast.Declarator{
				First: tok(5, 5, "main"), Last: tok(5, 9, "main"),
				Kind: ast.DeclIdent, NameTok: tok(5, 5, "main"), Name: "main",
			},
		},
		Body: &ast.Block{
			First: tok(6, 1, "{"), Last: tok(6, 30, "}"),
			Items: []ast.Stmt{
				&ast.ReturnStmt{
					First: tok(6, 5, "return"), Last: tok(6, 25, ";"),
					Value: &ast.CallExpr{
						First: tok(6, 12, "add"), Last: tok(6, 24, ")"),
						Callee: ident(6, 12, "add"),
						Args: []ast.Expr{
							&ast.IntLit{Tok: tok(6, 16, "2"), Text: "2"},
							&ast.IntLit{Tok: tok(6, 19, "3"), Text: "3"},
						},
					},
				},
			},
		},
	}

	return &ast.TranslationUnit{Decls: []ast.Decl{add, mainFn}}
}
