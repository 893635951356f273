package funnel

import (
	"fmt"
	"strings"

	"github.com/aerocl/aerobot/internal/catalog"
)

// Skeleton copy for every funnel reply. The composer may rephrase these, but
// they are always safe to send verbatim.

const advisorPrefix = "[Asesor Médico-Veterinario] Hola, soy tu asesor de Aerocámaras Plegables en Chile. " +
	"Te acompaño paso a paso para recomendar el tamaño correcto y cerrar tu compra de forma segura y rápida. " +
	"[Vendedor Amable] ¡Excelente! Te explico en simple y vamos atajando dudas. "

func style(text string) string {
	return advisorPrefix + text
}

const qualifyPrompt = "¿Buscas aerocámara para PERSONA o para MASCOTA? " +
	"Si es para persona, indícame ADULTO o PEDIÁTRICO. " +
	"Si es para mascota, indícame GATO/PERRO y tamaño (pequeño, mediano, grande)."

const shippingInfo = "Despachamos a todo Chile. En RM, 24–48 h hábiles; regiones, 48–96 h hábiles aprox. " +
	"Costo referencial desde $3.000 (según comuna/ciudad y peso). Retiro en bodega RM previa coordinación."

const warrantyInfo = "Garantía legal 6 meses por fallas de fabricación. Cambios/devoluciones según Ley Pro-Consumidor en Chile. " +
	"Soporte técnico y educación de uso incluidos."

const howtoHuman = "Para personas: agita el inhalador, acóplalo a la aerocámara, sella en boca, presiona 1 puff, " +
	"inhala lenta y profundamente 5–6 veces. En pediatría, sella en boca/nariz con mascarilla y cuenta respiraciones."

const howtoPet = "Para mascotas: acopla el inhalador, sella suavemente la mascarilla en hocico, administra 1 puff, " +
	"permite 5–6 respiraciones tranquilas. Refuerza con caricias/premios para habituación positiva."

const channelInfo = "Estoy disponible en Sitio Web, WhatsApp, Instagram y Telegram. ¿Por cuál prefieres continuar?"

const handoffInfo = "Listo, te derivo a un asesor humano. Déjame tu número o correo y te contactamos a la brevedad."

const collectDataPrompt = "Para emitir la orden necesito tu NOMBRE, COMUNA/CIUDAD y TELÉFONO o EMAIL."

// listOptions renders one catalog audience as price-list bullet lines.
func listOptions(entries []catalog.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("- %s: %s (SKU %s)", e.Name, catalog.FormatCLP(e.PriceCLP), e.SKU))
	}
	return strings.Join(lines, "\n")
}

// summarize renders the cart as an order summary with a CLP total.
func summarize(s *Session) string {
	if len(s.Cart) == 0 {
		return "Tu carrito está vacío."
	}
	lines := []string{"Resumen de tu pedido:"}
	for _, it := range s.Cart {
		qty := it.Qty
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, fmt.Sprintf("• %s x%d — %s", it.Name, qty, catalog.FormatCLP(it.PriceCLP*int64(qty))))
	}
	lines = append(lines, "Total (CLP): "+catalog.FormatCLP(s.CartTotal()))
	return strings.Join(lines, "\n")
}

func missingFields(c Customer) []string {
	var missing []string
	if c.Name == "" {
		missing = append(missing, "NOMBRE")
	}
	if c.City == "" {
		missing = append(missing, "COMUNA/CIUDAD")
	}
	if c.Phone == "" && c.Email == "" {
		missing = append(missing, "TELÉFONO o EMAIL")
	}
	return missing
}
