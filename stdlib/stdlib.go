// Package stdlib installs the structures and builtins every program can use
// without declaring them. The builtins forward to a Host, the rendering
// runtime behind the language.
package stdlib

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/canvaz-lang/canvaz/ast"
	"github.com/canvaz-lang/canvaz/object"
)

// EngineSettings is the Go form of the EngineSettings structure.
type EngineSettings struct {
	WindowTitle string
	Width       uint64
	Height      uint64
}

// Host is the runtime the builtins drive.
type Host interface {
	Start(settings EngineSettings) error
	Update() error
	IsOpen() bool
}

// Install declares the library structures and builtins in env.
func Install(env *object.Environment, host Host, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	lib := &library{host: host, logger: logger}

	for _, decl := range []*object.StructureDeclaration{
		vector("Vec2f", "Float", env),
		vector("Vec2i", "Integer", env),
		vector("Vec2u", "UInteger", env),
		object.NewStructureDeclaration("EngineSettings", []*ast.Parameter{
			object.Param("windowTitle", "String"),
			object.Param("windowSize", "Vec2u"),
		}, env),
	} {
		if err := env.DeclareStructure(decl); err != nil {
			return fmt.Errorf("install structure %s: %w", decl.Name, err)
		}
	}

	for _, b := range []*object.Builtin{
		{
			FuncName: "start",
			Params:   []*ast.Parameter{object.Param("settings", "EngineSettings")},
			Fn:       lib.start,
		},
		{
			FuncName: "update",
			Fn:       lib.update,
		},
		{
			FuncName: "isOpen",
			Return:   &object.TypeBoolean,
			Fn:       lib.isOpen,
		},
	} {
		b.Env = env
		if err := env.Declare(b.FuncName, object.NewValue(b)); err != nil {
			return fmt.Errorf("install builtin %s: %w", b.FuncName, err)
		}
	}
	return nil
}

func vector(name, member string, env *object.Environment) *object.StructureDeclaration {
	return object.NewStructureDeclaration(name, []*ast.Parameter{
		object.Param("x", member),
		object.Param("y", member),
	}, env)
}

type library struct {
	host   Host
	logger *slog.Logger
}

func (l *library) start(ctx *object.BuiltinContext, args []*object.Value) (any, error) {
	settings, err := decodeSettings(args[0])
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx.Context, "start", "title", settings.WindowTitle, "width", settings.Width, "height", settings.Height)
	if err := l.host.Start(settings); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return nil, nil
}

func (l *library) update(ctx *object.BuiltinContext, _ []*object.Value) (any, error) {
	if err := l.host.Update(); err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	return nil, nil
}

func (l *library) isOpen(ctx *object.BuiltinContext, _ []*object.Value) (any, error) {
	return l.host.IsOpen(), nil
}

// decodeSettings reads an EngineSettings instance. Unset members keep their
// zero value.
func decodeSettings(v *object.Value) (EngineSettings, error) {
	var settings EngineSettings
	s, ok := v.Data().(*object.Structure)
	if !ok {
		return settings, fmt.Errorf("settings must be an EngineSettings, got %s", v.TypeName())
	}
	if title, ok := member(s, "windowTitle").(string); ok {
		settings.WindowTitle = title
	}
	if size, ok := member(s, "windowSize").(*object.Structure); ok {
		settings.Width, _ = member(size, "x").(uint64)
		settings.Height, _ = member(size, "y").(uint64)
	}
	return settings, nil
}

func member(s *object.Structure, name string) any {
	v, ok := s.Members.Get(name)
	if !ok {
		return nil
	}
	return v.(*object.Value).Data()
}
