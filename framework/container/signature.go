package container

import (
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

var (
	errorType    = reflect.TypeFor[error]()
	durationType = reflect.TypeFor[time.Duration]()
)

// ── Parameter descriptors ─────────────────────────────────────────────────────

// Param describes one constructor or function parameter.
type Param struct {
	Name string
	Type reflect.Type

	// Class is true when the parameter is resolved through the container
	// (interfaces, structs and pointers to structs). Other parameters are
	// primitives filled from explicit params, "$name" value bindings or defaults.
	Class bool

	HasDefault bool
	Default    reflect.Value
	Optional   bool

	field []int // struct field index; nil for function parameters
}

// fallback is the value used when an optional parameter cannot be resolved.
func (p Param) fallback() reflect.Value {
	if p.HasDefault {
		return p.Default
	}
	return reflect.Zero(p.Type)
}

// Signature is the ordered parameter list of a class or function.
type Signature struct {
	Owner  string
	Params []Param
}

// Inspector reports what the resolver needs to know about a type. The
// default implementation reads struct fields and function signatures through
// the reflect package.
type Inspector interface {
	// Instantiable reports whether t can be built without a binding.
	Instantiable(t reflect.Type) bool
	// Constructor returns the parameters of struct type t.
	Constructor(t reflect.Type) (Signature, error)
	// Function returns the parameters of function type t, labelled with names.
	Function(t reflect.Type, names []string) (Signature, error)
}

// ── Reflect inspector ─────────────────────────────────────────────────────────

type reflectInspector struct {
	structs sync.Map // reflect.Type → Signature
}

// NewReflectInspector returns the default Inspector.
//
// Struct fields are parameters when exported. The inject tag renames a field
// or marks it optional, and default supplies a literal default:
//
//	type Client struct {
//	    Logger  *zap.Logger
//	    Timeout time.Duration `default:"5s"`
//	    Retries int           `inject:"retries,optional"`
//	    cache   map[string]any // ignored
//	    Debug   bool          `inject:"-"`
//	}
func NewReflectInspector() Inspector {
	return &reflectInspector{}
}

func (i *reflectInspector) Instantiable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func (i *reflectInspector) Constructor(t reflect.Type) (Signature, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Signature{}, fmt.Errorf("%s is not a struct", t)
	}
	if sig, ok := i.structs.Load(t); ok {
		return sig.(Signature), nil
	}

	sig := Signature{Owner: typeName(t)}
	for idx := range t.NumField() {
		f := t.Field(idx)
		if !f.IsExported() {
			continue
		}
		tag, tagged := f.Tag.Lookup("inject")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = paramName(f.Name)
		}
		p := Param{
			Name:     name,
			Type:     f.Type,
			Class:    isClassType(f.Type),
			Optional: tagged && hasOption(opts, "optional"),
			field:    f.Index,
		}
		if raw, ok := f.Tag.Lookup("default"); ok {
			v, err := parseDefault(f.Type, raw)
			if err != nil {
				return Signature{}, fmt.Errorf("field %s.%s: %w", t.Name(), f.Name, err)
			}
			p.HasDefault, p.Default = true, v
		}
		sig.Params = append(sig.Params, p)
	}

	i.structs.Store(t, sig)
	return sig, nil
}

func (i *reflectInspector) Function(t reflect.Type, names []string) (Signature, error) {
	if t.Kind() != reflect.Func {
		return Signature{}, fmt.Errorf("%s is not a function", t)
	}
	sig := Signature{Params: make([]Param, t.NumIn())}
	for idx := range t.NumIn() {
		in := t.In(idx)
		name := "arg" + strconv.Itoa(idx)
		if idx < len(names) && names[idx] != "" {
			name = names[idx]
		}
		p := Param{Name: name, Type: in, Class: isClassType(in)}
		if t.IsVariadic() && idx == t.NumIn()-1 {
			p.Class, p.Optional = false, true
		}
		sig.Params[idx] = p
	}
	return sig, nil
}

// isClassType reports whether values of t come from the container rather
// than from value bindings.
func isClassType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Struct:
		return true
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	}
	return false
}

func hasOption(opts, want string) bool {
	for _, o := range strings.Split(opts, ",") {
		if strings.TrimSpace(o) == want {
			return true
		}
	}
	return false
}

// paramName lower-cases the leading word of a Go identifier:
// Timeout → timeout, DB → db, URLPath → urlPath.
func paramName(field string) string {
	r := []rune(field)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	switch {
	case n == 0:
		return field
	case n > 1 && n < len(r):
		n-- // keep the first letter of the next word upper-case
	}
	for j := range n {
		r[j] = unicode.ToLower(r[j])
	}
	return string(r)
}

// parseDefault converts a default tag literal into a value of type t.
func parseDefault(t reflect.Type, raw string) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	if t == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return v, err
		}
		v.SetInt(int64(d))
		return v, nil
	}
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return v, err
		}
		v.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String {
			return v, fmt.Errorf("unsupported default for %s", t)
		}
		parts := strings.Split(raw, ",")
		s := reflect.MakeSlice(t, len(parts), len(parts))
		for j, part := range parts {
			s.Index(j).SetString(strings.TrimSpace(part))
		}
		v.Set(s)
	default:
		return v, fmt.Errorf("unsupported default for %s", t)
	}
	return v, nil
}

// ── Type keys ─────────────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces. One level of pointer is stripped.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
//	c.Singleton(key, container.Class[*SQLUserRepository]())
func TypeKey(v any) string {
	return typeName(reflect.TypeOf(v))
}

// Key is TypeKey for a type parameter.
//
//	c.Bind(container.Key[UserRepository](), container.Class[*SQLUserRepository]())
func Key[T any]() string {
	return typeName(reflect.TypeFor[T]())
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer && t.Elem().Name() != "" {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// funcName names a function value for errors and logs.
func funcName(fn reflect.Value) string {
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		return f.Name()
	}
	return fn.Type().String()
}

func describe(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}

// ── Type registry ─────────────────────────────────────────────────────────────

// typeRegistry remembers the reflect.Type behind every type key the container
// has seen, so a struct requested by name alone can still be autowired.
type typeRegistry struct {
	types sync.Map // string → reflect.Type
}

func (r *typeRegistry) remember(t reflect.Type) {
	if t == nil {
		return
	}
	r.types.LoadOrStore(typeName(t), t)
}

func (r *typeRegistry) lookup(key string) reflect.Type {
	if t, ok := r.types.Load(key); ok {
		return t.(reflect.Type)
	}
	return nil
}
