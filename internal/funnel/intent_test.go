package funnel

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"Hola", IntentGreet},
		{"/start", IntentGreet},
		{"buenos días!", IntentGreet},
		{"para mi hijo", IntentPerson},
		{"es para una persona adulta", IntentPerson},
		{"tengo un perro", IntentPet},
		{"¿cuánto vale?", IntentPrice},
		{"Ver precios", IntentPrice},
		{"quiero comprar una", IntentBuy},
		{"finalizar", IntentFinalize},
		{"Enviar datos", IntentFinalize},
		{"¿hacen envío a regiones?", IntentShipping},
		{"¿tiene garantía?", IntentWarranty},
		{"cómo usar la aerocámara", IntentHowTo},
		{"¿qué tamaño me sirve?", IntentSizing},
		{"Hablar con asesor", IntentHandoff},
		{"¿atienden por whatsapp?", IntentChannelInfo},
		{"asdfgh", IntentUnknown},
		{"", IntentUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyButtonHooks(t *testing.T) {
	// Reply-keyboard buttons must map onto funnel intents.
	buttons := map[string]Intent{
		"Persona":           IntentPerson,
		"Mascota":           IntentPet,
		"Adulto":            IntentPerson,
		"Pediátrico":        IntentPerson,
		"Gato/Perro Pequeño": IntentPet,
		"Perro Mediano":     IntentPet,
		"Perro Grande":      IntentPet,
		"Volver":            IntentGreet,
		"Nuevo pedido":      IntentGreet,
		"Agregar otra unidad": IntentBuy,
		"Instrucciones":     IntentHowTo,
		"Envío":             IntentShipping,
		"Garantía":          IntentWarranty,
		"Finalizar":         IntentFinalize,
	}
	for text, want := range buttons {
		if got := Classify(text); got != want {
			t.Errorf("Classify(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestSideChannelIntents(t *testing.T) {
	side := []Intent{IntentPrice, IntentShipping, IntentWarranty, IntentHowTo, IntentSizing, IntentHandoff, IntentChannelInfo}
	for _, i := range side {
		if !i.sideChannel() {
			t.Errorf("%q should be side-channel", i)
		}
	}
	funnelIntents := []Intent{IntentGreet, IntentPerson, IntentPet, IntentBuy, IntentFinalize, IntentUnknown}
	for _, i := range funnelIntents {
		if i.sideChannel() {
			t.Errorf("%q should not be side-channel", i)
		}
	}
}
