package channel

import (
	tele "gopkg.in/telebot.v4"

	"github.com/aerocl/aerobot/internal/funnel"
)

// StateKeyboard returns the Telegram reply keyboard for a funnel state, or
// nil when the state has no quick buttons.
func StateKeyboard(st funnel.State) *tele.ReplyMarkup {
	switch st {
	case funnel.StateStart, funnel.StateQualify:
		return replyButtons(
			[]string{"Persona", "Mascota"},
			[]string{"Precio", "Envío"},
			[]string{"Hablar con asesor"},
		)
	case funnel.StateHumanDetail:
		return replyButtons(
			[]string{"Adulto", "Pediátrico"},
			[]string{"Ver precios", "Envío"},
			[]string{"Volver"},
		)
	case funnel.StatePetDetail:
		return replyButtons(
			[]string{"Gato/Perro Pequeño"},
			[]string{"Perro Mediano", "Perro Grande"},
			[]string{"Ver precios", "Envío"},
			[]string{"Volver"},
		)
	case funnel.StateCollectData:
		return replyButtons(
			[]string{"Enviar datos"},
			[]string{"Envío", "Garantía"},
			[]string{"Hablar con asesor"},
		)
	case funnel.StateClose:
		return replyButtons(
			[]string{"Finalizar", "Agregar otra unidad"},
			[]string{"Instrucciones", "Envío"},
			[]string{"Garantía"},
		)
	case funnel.StateDone:
		return replyButtons(
			[]string{"Instrucciones"},
			[]string{"Nuevo pedido"},
		)
	}
	return nil
}

// replyButtons builds a reply keyboard from rows of button labels.
func replyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}
