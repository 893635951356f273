package funnel

import (
	"fmt"
	"strings"
	"time"

	"github.com/aerocl/aerobot/internal/catalog"
)

// Result is the outcome of one funnel step. Checkout marks the step that
// completed data collection: the caller must persist the order and append the
// payment link to Text before sending.
type Result struct {
	Text     string
	Checkout bool
}

// Machine advances sessions through the funnel against a fixed catalog.
type Machine struct {
	cat *catalog.Catalog
}

func NewMachine(cat *catalog.Catalog) *Machine {
	return &Machine{cat: cat}
}

// Advance mutates s according to the classified intent and raw text, and
// returns the skeleton reply. It performs no I/O and always produces a reply.
func (m *Machine) Advance(s *Session, intent Intent, text string) Result {
	s.UpdatedAt = time.Now().UTC()

	// First contact always moves to qualification, whatever the text says.
	if s.State == StateStart {
		s.State = StateQualify
		s.resetSale()
		return Result{Text: style(qualifyPrompt)}
	}

	// Informational questions are answered in place and never move the funnel.
	if intent.sideChannel() {
		return m.sideChannelReply(s, intent)
	}

	if s.State == StateDone {
		s.State = StateQualify
		s.resetSale()
		return Result{Text: style(qualifyPrompt)}
	}

	switch s.State {
	case StateQualify:
		return m.qualify(s, intent)
	case StateHumanDetail, StatePetDetail:
		return m.detail(s, intent, text)
	case StateCollectData:
		return m.collect(s, text)
	case StateClose:
		return m.close(s, intent)
	}

	// Unrecognized persisted state: recover by re-qualifying.
	s.State = StateQualify
	s.resetSale()
	return Result{Text: style(qualifyPrompt)}
}

func (m *Machine) qualify(s *Session, intent Intent) Result {
	switch intent {
	case IntentPerson:
		s.State = StateHumanDetail
		return Result{Text: style("Perfecto. Opciones para PERSONAS:\n" +
			listOptions(m.cat.ByAudience(catalog.AudienceHuman)) +
			"\n\n¿Prefieres ADULTO o PEDIÁTRICO?")}
	case IntentPet:
		s.State = StatePetDetail
		return Result{Text: style("Excelente. Opciones para MASCOTAS:\n" +
			listOptions(m.cat.ByAudience(catalog.AudiencePet)) +
			"\n\n¿Es GATO/Perro pequeño, Perro mediano o Perro grande?")}
	case IntentBuy:
		return Result{Text: style("Para ayudarte a comprar, primero definamos el modelo (Persona o Mascota).")}
	}
	return Result{Text: style("¿Persona (adulto/pediátrico) o Mascota (gato/perro pequeño/mediano/grande)?")}
}

func (m *Machine) detail(s *Session, intent Intent, text string) Result {
	if e, ok := m.selectEntry(s.State, text); ok {
		s.Cart = append(s.Cart, CartItem{SKU: e.SKU, Name: e.Name, PriceCLP: e.PriceCLP, Qty: 1})
		return Result{Text: style(fmt.Sprintf(
			"Agregué %s al carrito (%s).\n%s\n\n¿Deseas agregar algo más? Escribe FINALIZAR para continuar con tus datos.",
			e.Name, catalog.FormatCLP(e.PriceCLP), summarize(s)))}
	}
	if intent == IntentFinalize {
		if len(s.Cart) == 0 {
			return Result{Text: style("Aún no has elegido un modelo. " + m.variantPrompt(s.State))}
		}
		s.State = StateCollectData
		return Result{Text: style(collectDataPrompt + " Partamos por tu NOMBRE.")}
	}
	return Result{Text: style(m.variantPrompt(s.State))}
}

func (m *Machine) collect(s *Session, text string) Result {
	absorbCustomerField(&s.Customer, text)
	if missing := missingFields(s.Customer); len(missing) > 0 {
		return Result{Text: style("Perfecto, me faltan: " + strings.Join(missing, ", ") + ".")}
	}
	s.State = StateClose
	c := s.Customer
	return Result{
		Text: style(summarize(s) + "\n\n" +
			"Datos de cliente: " + c.Name + " — " + c.City + " — " + c.Contact() + "\n\n" +
			shippingInfo + "\n" + warrantyInfo),
		Checkout: true,
	}
}

func (m *Machine) close(s *Session, intent Intent) Result {
	switch intent {
	case IntentFinalize:
		s.State = StateDone
		return Result{Text: style("¡Listo! Te envié el resumen y el enlace de pago. ¿Necesitas instrucciones de uso o soporte?")}
	case IntentBuy:
		return Result{Text: style("Indícame el modelo o tamaño que deseas agregar, o escribe FINALIZAR para cerrar.")}
	}
	return Result{Text: style("¿Hay alguna duda técnica o de precio que quieras resolver antes de finalizar?")}
}

func (m *Machine) sideChannelReply(s *Session, intent Intent) Result {
	switch intent {
	case IntentPrice:
		switch s.State {
		case StateHumanDetail:
			return Result{Text: style("Claro, estas son las opciones:\n" +
				listOptions(m.cat.ByAudience(catalog.AudienceHuman)) + "\n¿Cuál prefieres?")}
		case StatePetDetail:
			return Result{Text: style("Claro, estas son las opciones:\n" +
				listOptions(m.cat.ByAudience(catalog.AudiencePet)) + "\n¿Cuál prefieres?")}
		}
		return Result{Text: style("Con gusto: dime si es para PERSONA o MASCOTA y te muestro precios exactos.")}
	case IntentShipping:
		return Result{Text: style(shippingInfo)}
	case IntentWarranty:
		return Result{Text: style(warrantyInfo)}
	case IntentHowTo:
		if m.audience(s) == catalog.AudiencePet {
			return Result{Text: style(howtoPet)}
		}
		return Result{Text: style(howtoHuman)}
	case IntentSizing:
		return Result{Text: style(m.variantPrompt(s.State))}
	case IntentHandoff:
		return Result{Text: style(handoffInfo)}
	case IntentChannelInfo:
		return Result{Text: style(channelInfo)}
	}
	return Result{Text: style(qualifyPrompt)}
}

// variantPrompt asks for the next narrowing choice appropriate to the state.
func (m *Machine) variantPrompt(st State) string {
	switch st {
	case StateHumanDetail:
		return "¿ADULTO o PEDIÁTRICO?"
	case StatePetDetail:
		return "¿Gato/Perro pequeño, Perro mediano o Perro grande?"
	}
	return "¿Para PERSONA o MASCOTA? Así te recomiendo el tamaño correcto."
}

// audience infers whether the conversation is about a pet, from the state or
// anything already in the cart.
func (m *Machine) audience(s *Session) catalog.Audience {
	if s.State == StatePetDetail {
		return catalog.AudiencePet
	}
	for _, it := range s.Cart {
		if e, ok := m.cat.Find(it.SKU); ok && e.Audience == catalog.AudiencePet {
			return catalog.AudiencePet
		}
	}
	return catalog.AudienceHuman
}

// selectEntry resolves a product mention: an explicit SKU anywhere in the
// text, or a variant keyword scoped to the state's audience.
func (m *Machine) selectEntry(st State, text string) (catalog.Entry, bool) {
	t := strings.ToLower(text)
	for _, e := range m.cat.Entries() {
		if strings.Contains(t, e.SKU) {
			return e, true
		}
	}
	if st == StateHumanDetail {
		switch {
		case strings.Contains(t, "adult"):
			return m.cat.FindVariant(catalog.AudienceHuman, "adulto")
		case strings.Contains(t, "pediatr"), strings.Contains(t, "pediátr"), strings.Contains(t, "niñ"):
			return m.cat.FindVariant(catalog.AudienceHuman, "pediatrico")
		}
		return catalog.Entry{}, false
	}
	switch {
	case strings.Contains(t, "gato"), strings.Contains(t, "peque"):
		return m.cat.FindVariant(catalog.AudiencePet, "gato_peq")
	case strings.Contains(t, "median"):
		return m.cat.FindVariant(catalog.AudiencePet, "perro_med")
	case strings.Contains(t, "gran"):
		return m.cat.FindVariant(catalog.AudiencePet, "perro_grande")
	}
	return catalog.Entry{}, false
}

// cityHints is the locality heuristic for free-text contact collection.
var cityHints = []string{
	"rm", "santiago", "providencia", "las condes", "ñuñoa", "puente alto",
	"maipú", "maipu", "valparaíso", "valparaiso", "viña", "vina", "conce", "concepción",
}

func absorbCustomerField(c *Customer, text string) {
	t := strings.TrimSpace(text)
	lt := strings.ToLower(t)
	switch {
	case strings.Contains(t, "@") && strings.Contains(t, "."):
		c.Email = t
	case containsAny(lt, cityHints):
		c.City = t
	case hasDigits(t) && len(t) >= 8:
		c.Phone = t
	case len(t) >= 3 && c.Name == "":
		c.Name = t
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasDigits(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
