package model

// SnippetData is the serialized form of the shared attributes.
type SnippetData struct {
	Type        Kind      `json:"type" yaml:"type"`
	Label       string    `json:"label" yaml:"label"`
	Description string    `json:"description" yaml:"description"`
	Code        string    `json:"code" yaml:"code"`
	Start       Position  `json:"start" yaml:"start"`
	End         Position  `json:"end" yaml:"end"`
	Tags        *Map[any] `json:"tags,omitempty" yaml:"tags,omitempty"`
	Exceptions  *Map[any] `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Events      *Map[any] `json:"events,omitempty" yaml:"events,omitempty"`
	Private     bool      `json:"private" yaml:"private"`
	Hidden      bool      `json:"hidden" yaml:"hidden"`
	Ignored     bool      `json:"ignore" yaml:"ignore"`
	Flags       []string  `json:"flags" yaml:"flags"`
	Todo        []string  `json:"todo" yaml:"todo"`
	Authors     []string  `json:"authors" yaml:"authors"`
	Super       *string   `json:"super" yaml:"super"`
	Override    bool      `json:"override" yaml:"override"`
}

// ClassData is the serialized form of a Class.
type ClassData struct {
	SnippetData   `yaml:",inline"`
	SourceFile    string    `json:"sourcefile" yaml:"sourcefile"`
	Extends       *string   `json:"extends" yaml:"extends"`
	Singleton     bool      `json:"singleton" yaml:"singleton"`
	Configuration *Map[any] `json:"configuration" yaml:"configuration"`
	Properties    *Map[any] `json:"properties" yaml:"properties"`
	Methods       *Map[any] `json:"methods" yaml:"methods"`
}

// NamespaceData is the serialized form of a Namespace.
type NamespaceData struct {
	SnippetData `yaml:",inline"`
	Namespaces  *Map[any] `json:"namespaces" yaml:"namespaces"`
	Classes     []string  `json:"classes" yaml:"classes"`
	Properties  *Map[any] `json:"properties" yaml:"properties"`
	Methods     *Map[any] `json:"methods" yaml:"methods"`
}

// MethodData is the serialized form of a Method.
type MethodData struct {
	SnippetData       `yaml:",inline"`
	Arguments         *Map[any]  `json:"arguments" yaml:"arguments"`
	ReturnType        string     `json:"returnType" yaml:"returnType"`
	ReturnDescription string     `json:"returnDescription" yaml:"returnDescription"`
	Kind              MethodKind `json:"kind" yaml:"kind"`
	Generator         bool       `json:"generator" yaml:"generator"`
	Static            bool       `json:"static" yaml:"static"`
	Computed          bool       `json:"computed" yaml:"computed"`
	Async             bool       `json:"async" yaml:"async"`
	Readable          bool       `json:"readable" yaml:"readable"`
	Writable          bool       `json:"writable" yaml:"writable"`
}

// ParameterData is the serialized form of a Parameter.
type ParameterData struct {
	SnippetData `yaml:",inline"`
	Default     any      `json:"default" yaml:"default"`
	Datatype    string   `json:"datatype" yaml:"datatype"`
	Required    bool     `json:"required" yaml:"required"`
	Enum        []string `json:"enum" yaml:"enum"`
}

// PropertyData is the serialized form of a Property.
type PropertyData struct {
	SnippetData   `yaml:",inline"`
	Default       any      `json:"default" yaml:"default"`
	Datatype      string   `json:"datatype" yaml:"datatype"`
	Readable      bool     `json:"readable" yaml:"readable"`
	Writable      bool     `json:"writable" yaml:"writable"`
	Configuration bool     `json:"configuration" yaml:"configuration"`
	Static        bool     `json:"static" yaml:"static"`
	Required      bool     `json:"required" yaml:"required"`
	Enum          []string `json:"enum" yaml:"enum"`
}

// EventData is the serialized form of an Event.
type EventData struct {
	SnippetData            `yaml:",inline"`
	Parameters             *Map[any] `json:"parameters" yaml:"parameters"`
	Deprecated             bool      `json:"deprecated" yaml:"deprecated"`
	DeprecationReplacement *string   `json:"deprecationReplacement" yaml:"deprecationReplacement"`
}

// ExceptionData is the serialized form of an Exception.
type ExceptionData struct {
	SnippetData `yaml:",inline"`
	Name        string `json:"name" yaml:"name"`
	ErrorType   string `json:"errorType" yaml:"errorType"`
	Severity    string `json:"severity" yaml:"severity"`
	Message     string `json:"message" yaml:"message"`
	Category    string `json:"category" yaml:"category"`
}

// TypeDefinitionData is the serialized form of a TypeDefinition.
type TypeDefinitionData struct {
	SnippetData `yaml:",inline"`
	Types       []string  `json:"types" yaml:"types"`
	Enum        []string  `json:"enum" yaml:"enum"`
	Properties  *Map[any] `json:"properties" yaml:"properties"`
}

// DataOf serializes every entity in m, keeping order.
func DataOf[V Entity](m *Map[V]) *Map[any] {
	out := &Map[any]{}
	for k, v := range m.All() {
		out.Set(k, v.Data())
	}
	return out
}

func (s *Snippet) data(kind Kind, full bool) SnippetData {
	d := SnippetData{
		Type:        kind,
		Label:       s.Label,
		Description: s.Description,
		Code:        s.Code,
		Start:       s.Start,
		End:         s.End,
		Private:     s.Private,
		Hidden:      s.Hidden,
		Ignored:     s.Ignored,
		Flags:       s.Flags.Items(),
		Todo:        s.Todo.Items(),
		Authors:     s.Authors.Items(),
		Super:       nullable(s.Super),
		Override:    s.Override,
	}
	if full {
		tags := s.Tags
		d.Tags = &tags
		d.Exceptions = DataOf(&s.Exceptions)
		d.Events = DataOf(&s.Events)
	}
	return d
}

func (c *Class) Data() any {
	return ClassData{
		SnippetData:   c.data(KindClass, true),
		SourceFile:    c.SourceFile,
		Extends:       nullable(c.Extends),
		Singleton:     c.Singleton,
		Configuration: DataOf(&c.Configuration),
		Properties:    DataOf(&c.Properties),
		Methods:       DataOf(&c.Methods),
	}
}

func (n *Namespace) Data() any {
	return NamespaceData{
		SnippetData: n.data(KindNamespace, true),
		Namespaces:  DataOf(&n.Namespaces),
		Classes:     n.Classes.Sorted(),
		Properties:  DataOf(&n.Properties),
		Methods:     DataOf(&n.Methods),
	}
}

func (m *Method) Data() any {
	return MethodData{
		SnippetData:       m.data(KindMethod, true),
		Arguments:         DataOf(&m.Parameters),
		ReturnType:        orVoid(m.ReturnType),
		ReturnDescription: orVoid(m.ReturnDescription),
		Kind:              m.MethodKind,
		Generator:         m.Generator,
		Static:            m.Static,
		Computed:          m.Computed,
		Async:             m.Async,
		Readable:          m.Readable,
		Writable:          m.Writable,
	}
}

// Data delegates to the callback method when the parameter is one.
func (p *Parameter) Data() any {
	if p.Callback != nil {
		return p.Callback.Data()
	}
	return ParameterData{
		SnippetData: p.data(KindArgument, false),
		Default:     p.Default,
		Datatype:    p.Datatype,
		Required:    p.Required,
		Enum:        p.Enum,
	}
}

func (p *Property) Data() any {
	return PropertyData{
		SnippetData:   p.data(KindProperty, false),
		Default:       p.Default,
		Datatype:      p.Datatype,
		Readable:      p.Readable,
		Writable:      p.Writable,
		Configuration: p.Configuration,
		Static:        p.Static,
		Required:      p.Required,
		Enum:          p.Enum,
	}
}

func (e *Event) Data() any {
	return EventData{
		SnippetData:            e.data(KindEvent, false),
		Parameters:             DataOf(&e.Parameters),
		Deprecated:             e.Deprecated,
		DeprecationReplacement: nullable(e.DeprecationReplacement),
	}
}

func (e *Exception) Data() any {
	d := e.data(KindException, true)
	d.Exceptions = nil
	d.Events = nil
	return ExceptionData{
		SnippetData: d,
		Name:        e.Name,
		ErrorType:   e.ErrorType,
		Severity:    e.Severity,
		Message:     e.Message,
		Category:    e.Category,
	}
}

func (t *TypeDefinition) Data() any {
	return TypeDefinitionData{
		SnippetData: t.data(KindDatatype, false),
		Types:       t.Types,
		Enum:        t.Enum,
		Properties:  DataOf(&t.Properties),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orVoid(s string) string {
	if s == "" {
		return "void"
	}
	return s
}
