package funnel

import (
	"strings"
	"testing"

	"github.com/aerocl/aerobot/internal/catalog"
)

func newMachine(t *testing.T) *Machine {
	t.Helper()
	return NewMachine(catalog.Default())
}

func step(t *testing.T, m *Machine, s *Session, text string) Result {
	t.Helper()
	r := m.Advance(s, Classify(text), text)
	if !s.State.Valid() {
		t.Fatalf("Advance(%q) left invalid state %q", text, s.State)
	}
	if r.Text == "" {
		t.Fatalf("Advance(%q) produced empty reply", text)
	}
	return r
}

func TestFreshUserGreeting(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")

	r := step(t, m, s, "Hola")
	if s.State != StateQualify {
		t.Fatalf("state = %q, want QUALIFY", s.State)
	}
	if !strings.Contains(r.Text, "PERSONA") || !strings.Contains(r.Text, "MASCOTA") {
		t.Errorf("reply should ask person-or-pet, got %q", r.Text)
	}
}

func TestQualifyPersonIntent(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")

	r := step(t, m, s, "para mi hijo")
	if s.State != StateHumanDetail {
		t.Fatalf("state = %q, want HUMAN_DETAIL", s.State)
	}
	for _, want := range []string{"Adulto", "$26.990", "Pediátrica", "$24.990"} {
		if !strings.Contains(r.Text, want) {
			t.Errorf("reply missing %q: %q", want, r.Text)
		}
	}
}

func TestQualifyStaysOnFreeText(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")

	for _, text := range []string{"mmm no sé", "qwerty", "tal vez"} {
		r := step(t, m, s, text)
		if s.State != StateQualify {
			t.Fatalf("state after %q = %q, want QUALIFY", text, s.State)
		}
		if !strings.Contains(r.Text, "Persona") && !strings.Contains(r.Text, "PERSONA") {
			t.Errorf("reply should re-prompt, got %q", r.Text)
		}
	}
}

func TestSelectSKUThenFinalize(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")
	step(t, m, s, "persona")

	r := step(t, m, s, "aerocamara-bolso")
	if s.State != StateHumanDetail {
		t.Fatalf("state = %q, want HUMAN_DETAIL after selection", s.State)
	}
	if len(s.Cart) != 1 || s.Cart[0].SKU != "aerocamara-bolso" {
		t.Fatalf("cart = %+v, want one aerocamara-bolso entry", s.Cart)
	}
	if !strings.Contains(r.Text, "$7.990") {
		t.Errorf("selection reply should carry the price, got %q", r.Text)
	}

	r = step(t, m, s, "finalizar")
	if s.State != StateCollectData {
		t.Fatalf("state = %q, want COLLECT_DATA", s.State)
	}
	if len(s.Cart) != 1 {
		t.Fatalf("finalize must not touch the cart, got %d items", len(s.Cart))
	}
	if !strings.Contains(r.Text, "NOMBRE") {
		t.Errorf("reply should request the name, got %q", r.Text)
	}
}

func TestFinalizeWithEmptyCartStays(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")
	step(t, m, s, "mascota")

	step(t, m, s, "finalizar")
	if s.State != StatePetDetail {
		t.Fatalf("state = %q, COLLECT_DATA must be unreachable with empty cart", s.State)
	}
}

func TestCollectDataToClose(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")
	step(t, m, s, "mascota")
	step(t, m, s, "perro grande")
	step(t, m, s, "finalizar")
	if s.State != StateCollectData {
		t.Fatalf("state = %q, want COLLECT_DATA", s.State)
	}

	r := step(t, m, s, "María Riquelme")
	if s.State != StateCollectData || r.Checkout {
		t.Fatalf("name alone must not close, state=%q checkout=%v", s.State, r.Checkout)
	}
	if !strings.Contains(r.Text, "COMUNA/CIUDAD") {
		t.Errorf("reply should list missing fields, got %q", r.Text)
	}

	step(t, m, s, "Ñuñoa")
	r = step(t, m, s, "+56 9 1234 5678")
	if s.State != StateClose {
		t.Fatalf("state = %q, want CLOSE", s.State)
	}
	if !r.Checkout {
		t.Fatal("completing contact data must flag checkout")
	}
	for _, want := range []string{"Resumen de tu pedido", "Perro Grande", "Total (CLP): $27.990", "María Riquelme", "Ñuñoa"} {
		if !strings.Contains(r.Text, want) {
			t.Errorf("close reply missing %q: %q", want, r.Text)
		}
	}
	if got := s.Customer; got.Name != "María Riquelme" || got.City != "Ñuñoa" || got.Phone == "" {
		t.Errorf("customer = %+v", got)
	}
}

func TestCloseFinalizeThenRestart(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")
	step(t, m, s, "persona")
	step(t, m, s, "adulto")
	step(t, m, s, "finalizar")
	step(t, m, s, "Pedro Soto")
	step(t, m, s, "Santiago")
	step(t, m, s, "pedro@example.com")
	if s.State != StateClose {
		t.Fatalf("state = %q, want CLOSE", s.State)
	}

	step(t, m, s, "finalizar")
	if s.State != StateDone {
		t.Fatalf("state = %q, want DONE", s.State)
	}

	// Terminal state reopens a fresh sale on the next message.
	step(t, m, s, "otra consulta")
	if s.State != StateQualify {
		t.Fatalf("state = %q, want QUALIFY after DONE", s.State)
	}
	if len(s.Cart) != 0 || s.Customer != (Customer{}) {
		t.Errorf("restart must clear sale progress: cart=%v customer=%+v", s.Cart, s.Customer)
	}
}

func TestSideChannelDoesNotDerail(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")
	step(t, m, s, "persona")
	step(t, m, s, "adulto")
	step(t, m, s, "finalizar")

	r := step(t, m, s, "¿cuánto vale el envío?")
	if s.State != StateCollectData {
		t.Fatalf("state = %q, side-channel question must not move the funnel", s.State)
	}
	if r.Checkout {
		t.Error("informational reply must not flag checkout")
	}

	r = step(t, m, s, "¿tiene garantía?")
	if s.State != StateCollectData || !strings.Contains(r.Text, "Garantía legal") {
		t.Errorf("state=%q reply=%q", s.State, r.Text)
	}
}

func TestHowToFollowsAudience(t *testing.T) {
	m := newMachine(t)
	s := NewSession("web", "u1")
	step(t, m, s, "Hola")
	step(t, m, s, "tengo un gato")
	if s.State != StatePetDetail {
		t.Fatalf("state = %q, want PET_DETAIL", s.State)
	}
	r := step(t, m, s, "instrucciones")
	if !strings.Contains(r.Text, "mascotas") {
		t.Errorf("pet context should get pet instructions, got %q", r.Text)
	}
}

func TestAdvanceNeverLeavesEnum(t *testing.T) {
	m := newMachine(t)
	inputs := []string{
		"Hola", "persona", "mascota", "adulto", "perro grande", "finalizar",
		"¿cuánto vale?", "envío", "garantía", "asdf", "Pedro", "Santiago",
		"p@e.cl", "+56911112222", "instrucciones", "hablar con asesor", "volver",
	}
	for _, st := range States() {
		for _, text := range inputs {
			s := NewSession("web", "u1")
			s.State = st
			if st == StateCollectData || st == StateClose {
				s.Cart = []CartItem{{SKU: "aerocamara-adulto", Name: "x", PriceCLP: 26990, Qty: 1}}
			}
			m.Advance(s, Classify(text), text)
			if !s.State.Valid() {
				t.Fatalf("from %q on %q: invalid state %q", st, text, s.State)
			}
		}
	}
}
