package parser

import (
	"testing"

	"github.com/codelens-dev/codelens/internal/store"
)

func TestRustParserLineBased(t *testing.T) {
	src := `pub struct Widget {
    name: String,
}

pub trait Shape {
    fn area(&self) -> f64;
}

pub enum Color {
    Red,
}

pub const MAX: u32 = 10;

pub fn new_widget() -> Widget {
    Widget { name: String::new() }
}
`
	p := NewRustParser()
	result := p.Parse(src)

	widget := symbolNamed(t, result.Symbols, "Widget")
	if widget.Kind != store.KindStruct {
		t.Errorf("Widget should be KindStruct, got %s", widget.Kind)
	}
	shape := symbolNamed(t, result.Symbols, "Shape")
	if shape.Kind != store.KindInterface {
		t.Errorf("Shape should be KindInterface, got %s", shape.Kind)
	}
	color := symbolNamed(t, result.Symbols, "Color")
	if color.Kind != store.KindEnum {
		t.Errorf("Color should be KindEnum, got %s", color.Kind)
	}
	fn := symbolNamed(t, result.Symbols, "new_widget")
	if fn.Kind != store.KindFunction {
		t.Errorf("new_widget should be KindFunction, got %s", fn.Kind)
	}
}

func TestSwiftParserLineBased(t *testing.T) {
	src := `protocol Shape {
    func area() -> Double
}

struct Circle: Shape {
    let radius: Double

    func area() -> Double {
        return 0
    }
}
`
	p := NewSwiftParser()
	result := p.Parse(src)

	shape := symbolNamed(t, result.Symbols, "Shape")
	if shape.Kind != store.KindInterface {
		t.Errorf("Shape should be KindInterface, got %s", shape.Kind)
	}
	circle := symbolNamed(t, result.Symbols, "Circle")
	if circle.Kind != store.KindStruct {
		t.Errorf("Circle should be KindStruct, got %s", circle.Kind)
	}
}

func TestCppParserLineBased(t *testing.T) {
	src := `namespace widgets {

class Widget {
public:
    int area() {
        return 0;
    }
};

}
`
	p := NewCppParser()
	result := p.Parse(src)

	ns := symbolNamed(t, result.Symbols, "widgets")
	if ns.Kind != store.KindModule {
		t.Errorf("namespace should be KindModule, got %s", ns.Kind)
	}
	widget := symbolNamed(t, result.Symbols, "Widget")
	if widget.Kind != store.KindClass {
		t.Errorf("Widget should be KindClass, got %s", widget.Kind)
	}
}

func TestFallbackParsersRegisterDistinctExtensions(t *testing.T) {
	r, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry() error: %v", err)
	}
	for ext, lang := range map[string]string{".rs": "rust", ".swift": "swift", ".cpp": "cpp"} {
		p, ok := r.ParserForExtension(ext)
		if !ok {
			t.Fatalf("extension %q not registered", ext)
		}
		if p.Language() != lang {
			t.Errorf("extension %q registered to language %q, want %q", ext, p.Language(), lang)
		}
	}
}
