package composer

import (
	"context"
	"strings"
	"testing"

	"github.com/aerocl/aerobot/internal/catalog"
	"github.com/aerocl/aerobot/internal/funnel"
)

func TestTemplatePassesSkeletonThrough(t *testing.T) {
	p := Prompt{
		Channel:  "web",
		State:    funnel.StateQualify,
		UserText: "Hola",
		Skeleton: "¿Buscas aerocámara para PERSONA o para MASCOTA?",
	}
	got, err := Template{}.Compose(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if got != p.Skeleton {
		t.Errorf("Compose = %q, want skeleton verbatim", got)
	}
}

func TestSystemPreambleCarriesCatalog(t *testing.T) {
	preamble := systemPreamble(catalog.Default())
	for _, want := range []string{
		"aerocamara-adulto", "$26.990",
		"aerocamara-perro-grande", "$27.990",
		"texto plano",
	} {
		if !strings.Contains(preamble, want) {
			t.Errorf("preamble missing %q", want)
		}
	}
}
