package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aerocl/aerobot/internal/catalog"
	"github.com/aerocl/aerobot/internal/channel"
	"github.com/aerocl/aerobot/internal/composer"
	"github.com/aerocl/aerobot/internal/funnel"
	"github.com/aerocl/aerobot/internal/store"
)

// failingComposer simulates a timed-out or broken completion service.
type failingComposer struct{}

func (failingComposer) Compose(context.Context, composer.Prompt) (string, error) {
	return "", errors.New("context deadline exceeded")
}

// echoComposer marks replies so tests can tell the composer ran.
type echoComposer struct{}

func (echoComposer) Compose(_ context.Context, p composer.Prompt) (string, error) {
	return "[ai] " + p.Skeleton, nil
}

func newTestEngine(comp composer.Composer) (*Engine, *store.Memory) {
	mem := store.NewMemory()
	machine := funnel.NewMachine(catalog.Default())
	return NewEngine(machine, mem, mem, mem, comp, "https://aerocl.example"), mem
}

func say(t *testing.T, e *Engine, userID, text string) channel.Outbound {
	t.Helper()
	out, err := e.Handle(context.Background(), channel.Inbound{Channel: channel.Web, UserID: userID, Text: text})
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return out
}

func TestComposerFailureFallsBackToSkeleton(t *testing.T) {
	e, _ := newTestEngine(failingComposer{})

	out := say(t, e, "u1", "Hola")
	if out.Text == "" {
		t.Fatal("user must always receive a reply")
	}
	if !strings.Contains(out.Text, "PERSONA") || !strings.Contains(out.Text, "MASCOTA") {
		t.Errorf("fallback reply should be the skeleton, got %q", out.Text)
	}
	if out.State != funnel.StateQualify {
		t.Errorf("state = %q, want QUALIFY", out.State)
	}
}

func TestComposedReplyUsedWhenAvailable(t *testing.T) {
	e, _ := newTestEngine(echoComposer{})

	out := say(t, e, "u1", "Hola")
	if !strings.HasPrefix(out.Text, "[ai] ") {
		t.Errorf("composed text not used: %q", out.Text)
	}
}

func TestDuplicateDeliveryDropped(t *testing.T) {
	e, _ := newTestEngine(composer.Template{})

	in := channel.Inbound{Channel: channel.Telegram, UserID: "42", MessageID: "907", Text: "Hola"}
	if _, err := e.Handle(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	_, err := e.Handle(context.Background(), in)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second delivery err = %v, want ErrDuplicate", err)
	}
}

func TestDuplicateDeliveryDoesNotDoubleCart(t *testing.T) {
	e, mem := newTestEngine(composer.Template{})
	ctx := context.Background()

	msgs := []channel.Inbound{
		{Channel: channel.Telegram, UserID: "42", MessageID: "1", Text: "Hola"},
		{Channel: channel.Telegram, UserID: "42", MessageID: "2", Text: "persona"},
		{Channel: channel.Telegram, UserID: "42", MessageID: "3", Text: "adulto"},
	}
	for _, in := range msgs {
		if _, err := e.Handle(ctx, in); err != nil {
			t.Fatal(err)
		}
	}
	// Provider redelivers the selection message.
	if _, err := e.Handle(ctx, msgs[2]); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	s, err := mem.GetOrCreate(ctx, channel.Telegram, "42")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Cart) != 1 {
		t.Errorf("cart has %d items after duplicate delivery, want 1", len(s.Cart))
	}
}

func TestCheckoutPersistsOrderAndLead(t *testing.T) {
	e, mem := newTestEngine(composer.Template{})
	ctx := context.Background()

	for _, text := range []string{"Hola", "mascota", "perro mediano", "finalizar", "Carla Rojas", "Providencia"} {
		say(t, e, "u9", text)
	}
	out := say(t, e, "u9", "carla@example.com")

	if out.State != funnel.StateClose {
		t.Fatalf("state = %q, want CLOSE", out.State)
	}
	if !strings.Contains(out.Text, "https://aerocl.example/pagar?order=") {
		t.Errorf("reply missing payment link: %q", out.Text)
	}
	if !strings.Contains(out.Text, "monto=24990") {
		t.Errorf("payment link missing total: %q", out.Text)
	}

	leads, err := mem.ListLeads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 1 || leads[0].Name != "Carla Rojas" || leads[0].Email != "carla@example.com" {
		t.Fatalf("leads = %+v", leads)
	}

	// The order id in the link must resolve to a stored pending order.
	idx := strings.Index(out.Text, "order=")
	rest := out.Text[idx+len("order="):]
	orderID := rest[:strings.Index(rest, "&")]
	order, err := mem.GetOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("order %q not stored: %v", orderID, err)
	}
	if order.Status != "pending" || order.TotalCLP != 24990 || len(order.Items) != 1 {
		t.Errorf("order = %+v", order)
	}
}

func TestSessionPersistedAcrossMessages(t *testing.T) {
	e, mem := newTestEngine(composer.Template{})
	ctx := context.Background()

	say(t, e, "u2", "Hola")
	say(t, e, "u2", "para mi hijo")

	s, err := mem.GetOrCreate(ctx, channel.Web, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if s.State != funnel.StateHumanDetail {
		t.Errorf("persisted state = %q, want HUMAN_DETAIL", s.State)
	}
}
