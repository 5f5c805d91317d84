// Package cobra builds cobra commands from a JSON description plus the
// `cobra`, `short` and `usage` tags of a struct.
//
//	type traceCommand struct {
//		Limit int `cobra:"limit" short:"n" usage:"frames to print"`
//	}
//
//	ICobraWrapper(&traceCommand{}, `{"Use": "trace", "RunE": "Run"}`)
package cobra

import (
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
)

type Command = cobra.Command

type ICobra interface {
	Command() *cobra.Command
}

type singleCobra struct {
	cmd *cobra.Command
}

func (c *singleCobra) Command() *cobra.Command {
	return c.cmd
}

type pair struct {
	name, scope string
}

var (
	kindSetters = map[reflect.Kind]func(*pflag.FlagSet, reflect.Value, string, string, string){
		reflect.Int: func(flags *pflag.FlagSet, value reflect.Value, field, short, usage string) {
			warp[int](value, elseOf(short, flags.IntVar, flags.IntVarP), field, short, usage, int(value.Int()))
		},
		reflect.Int64: func(flags *pflag.FlagSet, value reflect.Value, field, short, usage string) {
			warp[int64](value, elseOf(short, flags.Int64Var, flags.Int64VarP), field, short, usage, value.Int())
		},
		reflect.Uint: func(flags *pflag.FlagSet, value reflect.Value, field, short, usage string) {
			warp[uint](value, elseOf(short, flags.UintVar, flags.UintVarP), field, short, usage, uint(value.Uint()))
		},
		reflect.Float64: func(flags *pflag.FlagSet, value reflect.Value, field, short, usage string) {
			warp[float64](value, elseOf(short, flags.Float64Var, flags.Float64VarP), field, short, usage, value.Float())
		},
		reflect.String: func(flags *pflag.FlagSet, value reflect.Value, field, short, usage string) {
			warp[string](value, elseOf(short, flags.StringVar, flags.StringVarP), field, short, usage, value.String())
		},
		reflect.Bool: func(flags *pflag.FlagSet, value reflect.Value, field, short, usage string) {
			warp[bool](value, elseOf(short, flags.BoolVar, flags.BoolVarP), field, short, usage, value.Bool())
		},
	}
)

func elseOf(str string, a1, a2 interface{}) interface{} {
	if strings.TrimSpace(str) == "" {
		return a1
	} else {
		return a2
	}
}

func warp[T any](value reflect.Value, f interface{}, field, short, usage string, def T) {
	if !value.CanSet() {
		return
	}
	exec := reflect.ValueOf(f)
	values := []reflect.Value{value.Addr(), reflect.ValueOf(field)}

	if short != "" {
		values = append(values, reflect.ValueOf(short))
	}

	values = append(values, reflect.ValueOf(def), reflect.ValueOf(usage))
	exec.Call(values)
}

// ICobraWrapper builds a command from config, a JSON object with the cobra
// fields Use, Short, Long, Version and Example, the method names RunE and
// PreRunE (persistent) and Args, the exact number of positional arguments.
func ICobraWrapper(instance interface{}, config string, children ...ICobra) (c ICobra) {
	cmd := &cobra.Command{SilenceUsage: true}
	c = &singleCobra{cmd}
	for _, it := range children {
		cmd.AddCommand(it.Command())
	}

	parser := gjson.Parse(config)
	bindField(parser, "Use", func(value string) { cmd.Use = value })
	bindField(parser, "Short", func(value string) { cmd.Short = value })
	bindField(parser, "Long", func(value string) { cmd.Long = value })
	bindField(parser, "Version", func(value string) { cmd.Version = value })
	bindField(parser, "Example", func(value string) { cmd.Example = value })

	if result := parser.Get("Args"); result.Exists() {
		cmd.Args = cobra.ExactArgs(int(result.Int()))
	}

	value := reflect.ValueOf(instance)
	bindMethod(parser, value, "RunE", func(value func(*cobra.Command, []string) error) { cmd.RunE = value })
	bindMethod(parser, value, "PreRunE", func(value func(*cobra.Command, []string) error) { cmd.PersistentPreRunE = value })

	bindTag(cmd, value)
	return
}

func bindField(parser gjson.Result, field string, f func(string)) {
	if result := parser.Get(field); result.Exists() {
		if field = result.String(); field != "" {
			f(field)
		}
	}
}

func bindMethod(parser gjson.Result, value reflect.Value, field string, f func(func(*cobra.Command, []string) error)) {
	result := parser.Get(field)
	if !result.Exists() || result.String() == "" {
		return
	}

	method := value.MethodByName(result.String())
	if !method.IsValid() {
		panic("`" + result.String() + "` method is not exist")
	}

	f(func(cmd *cobra.Command, args []string) error {
		out := method.Call([]reflect.Value{reflect.ValueOf(cmd), reflect.ValueOf(args)})
		if len(out) == 0 || out[0].IsNil() {
			return nil
		}
		return out[0].Interface().(error)
	})
}

func bindTag(cmd *cobra.Command, value reflect.Value) {
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	for i := 0; i < value.NumField(); i++ {
		lookup, ok := value.Type().Field(i).Tag.Lookup("cobra")
		if !ok || lookup == "" {
			continue
		}

		p, ok := sliceToPair(strings.Split(lookup, ","))
		if !ok || p.name == "" {
			continue
		}

		short, _ := value.Type().Field(i).Tag.Lookup("short")
		usage, _ := value.Type().Field(i).Tag.Lookup("usage")

		flags := cmd.Flags()
		if p.scope == "per" {
			flags = cmd.PersistentFlags()
		}

		setter(flags, value.Field(i), p.name, short, usage)
	}
}

func sliceToPair(slice []string) (p pair, ok bool) {
	if len(slice) == 0 {
		return
	}
	if len(slice) == 1 {
		slice = append(slice, "")
	}
	return pair{name: strings.TrimSpace(slice[0]), scope: strings.TrimSpace(slice[1])}, true
}

func setter(flags *pflag.FlagSet, value reflect.Value, field, short, usage string) {
	if exec, ok := kindSetters[value.Kind()]; ok {
		exec(flags, value, field, short, usage)
	}
}
