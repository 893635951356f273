package funnel

import "strings"

// Intent is a coarse classification of user free text.
type Intent string

const (
	IntentGreet       Intent = "greet"
	IntentPerson      Intent = "want_human"
	IntentPet         Intent = "want_pet"
	IntentPrice       Intent = "ask_price"
	IntentBuy         Intent = "buy"
	IntentFinalize    Intent = "finalize"
	IntentShipping    Intent = "shipping"
	IntentWarranty    Intent = "warranty"
	IntentHowTo       Intent = "howto"
	IntentSizing      Intent = "sizing"
	IntentHandoff     Intent = "handoff"
	IntentChannelInfo Intent = "channel_info"
	IntentUnknown     Intent = "unknown"
)

// keyword rule table, checked in order. First hit wins, so the more specific
// phrases (keyboard buttons) come before the generic vocabularies they overlap.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentHandoff, []string{"hablar con asesor", "asesor humano", "humano por favor"}},
	{IntentFinalize, []string{"finalizar", "enviar datos", "cerrar pedido", "confirmar pedido"}},
	{IntentPrice, []string{"ver precios", "precio", "cuánto", "cuanto", "vale", "cost"}},
	{IntentGreet, []string{"hola", "buenas", "buenos días", "buenos dias", "start", "/start", "volver", "nuevo pedido"}},
	{IntentPerson, []string{"humana", "persona", "adulto", "pediátric", "pediatric", "niño", "niña", "hijo", "hija"}},
	{IntentPet, []string{"mascota", "perro", "gato"}},
	{IntentBuy, []string{"comprar", "orden", "pedido", "quiero", "lo compro", "pagar", "agregar otra unidad"}},
	{IntentShipping, []string{"envío", "envio", "retiro", "despacho"}},
	{IntentWarranty, []string{"garantía", "garantia", "devolución", "devolucion", "cambio"}},
	{IntentHowTo, []string{"instrucciones", "ayuda", "asesoría", "asesoria", "uso", "cómo usar", "como usar"}},
	{IntentSizing, []string{"tamaño", "tamano", "medida", "size", "modelo"}},
	{IntentChannelInfo, []string{"instagram", "whatsapp", "telegram", "web"}},
}

// Classify maps free text onto a coarse intent using keyword rules.
func Classify(text string) Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return IntentUnknown
	}
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}

// sideChannel reports whether the intent is informational: answered in place
// without moving the funnel.
func (i Intent) sideChannel() bool {
	switch i {
	case IntentPrice, IntentShipping, IntentWarranty, IntentHowTo,
		IntentSizing, IntentHandoff, IntentChannelInfo:
		return true
	}
	return false
}
