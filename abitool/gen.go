package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"os"
	"os/exec"
	"sort"
	"strings"
	"text/template"

	"github.com/Mitranim/repr"
	"github.com/pkg/errors"
	"github.com/purelabio/ethabi"
	"github.com/urfave/cli/v2"
)

const selfImportPath = "github.com/purelabio/ethabi"

var genCommand = &cli.Command{
	Name:      "gen",
	Usage:     "compile Solidity contracts and output their ABI definitions as Go code",
	ArgsUsage: "<filePath:contractName> ...",
	Description: `Invokes the Solidity compiler with "--combined-json=abi,bin --optimize" and
writes a Go file with the ABI, the code, the function selectors and the event
topics of each requested contract. Example:

	abitool gen --out=gen_contracts.go sol/Test.sol:Test

To use with "go generate":

	//go:generate abitool gen --out=gen_contracts.go sol/Test.sol:Test

The generated code has no impact on program startup beyond parsing the ABI.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "solc",
			Usage:   "Solidity compiler executable",
			Value:   "solc",
			EnvVars: []string{"SOLC"},
		},
		&cli.StringFlag{
			Name:     "out",
			Usage:    "output path for the generated Go file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "pkg",
			Usage: "package name for the generated code",
			Value: "main",
		},
		&cli.BoolFlag{
			Name:  "self",
			Usage: "generate code for the ethabi package itself: no import, no package prefix",
		},
	},
	Action: runGen,
}

func runGen(ctx *cli.Context) error {
	specs := ctx.Args().Slice()
	if len(specs) == 0 {
		return errors.New(`must specify at least one contract, in the form "<filePath>:<contractName>"`)
	}

	// Extract file paths from <filePath>:<contractName> specs
	filePaths := make([]string, 0, len(specs))
	for _, spec := range specs {
		pair := strings.SplitN(spec, ":", 2)
		if len(pair) < 2 || pair[0] == "" || pair[1] == "" {
			return errors.Errorf(`contract specs must have the form "<filePath>:<contractName>", got %q`, spec)
		}
		filePaths = append(filePaths, pair[0])
	}

	solc := ctx.String("solc")
	logger.Debug().Str("solc", solc).Strs("files", filePaths).Msg("compiling contracts")

	solcArgs := append([]string{"--combined-json=abi,bin", "--optimize"}, filePaths...)
	cmd := exec.CommandContext(ctx.Context, solc, solcArgs...)

	var buf bytes.Buffer
	cmd.Stdin = os.Stdin
	cmd.Stdout = &buf
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return errors.Wrap(err, "failed to invoke solc")
	}

	defs, err := ethabi.ReadContractDefs(&buf)
	if err != nil {
		return errors.WithMessage(err, "failed to decode ABI output from solc")
	}

	picked, err := pickContractDefs(defs, specs)
	if err != nil {
		return err
	}

	source, err := genSource(picked, ctx.String("pkg"), ctx.Bool("self"))
	if err != nil {
		return err
	}

	out := ctx.String("out")
	const readWriteMode = os.FileMode(0600)
	err = os.WriteFile(out, source, readWriteMode)
	if err != nil {
		return errors.Wrapf(err, "failed to write %q", out)
	}

	logger.Info().Str("out", out).Int("contracts", len(picked)).Msg("generated contract definitions")
	return nil
}

// Picks the specified contracts in the order given, validating their presence.
func pickContractDefs(defs map[string]ethabi.ContractDef, specs []string) ([]ethabi.ContractDef, error) {
	out := make([]ethabi.ContractDef, 0, len(specs))
	for _, spec := range specs {
		def, ok := defs[spec]
		if !ok {
			return nil, errors.Errorf("contract %q is missing from the solc output; found contracts: %q",
				spec, sortedDefNames(defs))
		}

		pretty, err := prettyJson(def.AbiJson)
		if err != nil {
			return nil, errors.WithMessagef(err, "contract %q", spec)
		}
		def.AbiJson = pretty
		out = append(out, def)
	}
	return out, nil
}

type genContract struct {
	ethabi.ContractDef
	Selectors map[string]ethabi.Selector
	Topics    map[string]ethabi.Word
}

func genSource(defs []ethabi.ContractDef, pkg string, self bool) ([]byte, error) {
	contracts := make([]genContract, len(defs))
	for i, def := range defs {
		if strings.Contains(def.AbiJson, "`") {
			return nil, errors.Errorf("ABI of contract %q contains a backtick", def.ContractName)
		}
		contracts[i] = genContract{
			ContractDef: def,
			Selectors:   abiSelectors(def.Abi),
			Topics:      abiTopics(def.Abi),
		}
	}

	gen := generator{self: self}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by abitool. DO NOT EDIT.\n\npackage %v\n", pkg)
	if !self {
		fmt.Fprintf(&buf, "import %q\n", selfImportPath)
	}

	err := gen.template().Execute(&buf, contracts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	source, err := format.Source(buf.Bytes())
	return source, errors.Wrap(err, "failed to format generated code")
}

// Function selectors keyed by canonical signature.
func abiSelectors(abi ethabi.Abi) map[string]ethabi.Selector {
	out := map[string]ethabi.Selector{}
	for _, method := range abi {
		switch method := method.(type) {
		case ethabi.AbiFunction:
			out[method.Signature()] = method.Selector
		case ethabi.AbiError:
			out[method.Signature()] = method.Selector
		}
	}
	return out
}

// Event topics keyed by canonical signature. Anonymous events have no topic.
func abiTopics(abi ethabi.Abi) map[string]ethabi.Word {
	out := map[string]ethabi.Word{}
	for _, method := range abi {
		event, ok := method.(ethabi.AbiEvent)
		if ok && !event.Anonymous {
			out[event.Signature()] = event.Topic
		}
	}
	return out
}

type generator struct{ self bool }

// Maps are spelled out by the template because "range" visits keys in sorted
// order, which keeps the output stable.
func (self generator) template() *template.Template {
	return template.Must(template.New("").
		Funcs(template.FuncMap{
			"pkgPrefix": self.pkgPrefix,
			"repr":      self.repr,
			"reprBytes": func(input []byte) string { return self.repr(input) },
			"quote":     func(str string) string { return fmt.Sprintf("%q", str) },
		}).
		Parse(`
{{range .}}

const {{.ContractName}}AbiJson = ` + "`" + `{{.AbiJson}}` + "`" + `

var {{.ContractName}}Abi = {{pkgPrefix}}MustParseAbiJson({{.ContractName}}AbiJson)

var {{.ContractName}}Code = {{.Code | reprBytes}}

const {{.ContractName}}CodeHex = ` + "`" + `{{.Code.String}}` + "`" + `

var {{.ContractName}}Selectors = map[string]{{pkgPrefix}}Selector{
{{range $sig, $val := .Selectors}}	{{quote $sig}}: {{repr $val}},
{{end}}}

var {{.ContractName}}Topics = map[string]{{pkgPrefix}}Word{
{{range $sig, $val := .Topics}}	{{quote $sig}}: {{repr $val}},
{{end}}}

{{end}}
`))
}

func (self generator) pkgPrefix() string {
	if self.self {
		return ""
	}
	return "ethabi."
}

func (self generator) repr(val interface{}) string {
	if self.self {
		return repr.StringC(val, repr.Config{
			PackageMap: map[string]string{
				selfImportPath: "",
			},
		})
	}
	return repr.String(val)
}

func sortedDefNames(defs map[string]ethabi.ContractDef) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func prettyJson(input string) (string, error) {
	var val interface{}
	err := json.Unmarshal([]byte(input), &val)
	if err != nil {
		return "", errors.WithStack(err)
	}
	pretty, err := json.MarshalIndent(val, "", "\t")
	return string(pretty), errors.WithStack(err)
}
