package wizard

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/field"
)

func newTestStore(t *testing.T, initial map[string]any) *Store {
	t.Helper()
	store, err := NewStore(userSteps(), initial)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestValidateStep_HiddenFieldIsNeverRequired(t *testing.T) {
	t.Parallel()

	for _, stored := range []any{"", "12345-F", nil} {
		store := newTestStore(t, map[string]any{"accessLevel": "CLIENTE", "creci": stored})
		result := ValidateStep(store.Steps()[1], store)
		if !result.Valid {
			t.Fatalf("expected valid with creci=%v, got %v", stored, result.Errors)
		}
		if diff := cmp.Diff([]string{"creci"}, result.Hidden); diff != "" {
			t.Fatalf("hidden mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestValidateStep_VisibleConditionalIsRequired(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]any{"accessLevel": "ADMINISTRADOR"})
	result := ValidateStep(store.Steps()[1], store)
	if result.Valid {
		t.Fatalf("expected invalid step")
	}
	if _, ok := result.Errors["creci"]; !ok {
		t.Fatalf("expected creci error, got %v", result.Errors)
	}
	if len(result.Hidden) != 0 {
		t.Fatalf("expected no hidden fields, got %v", result.Hidden)
	}
}

func TestValidateStep_ReportsEveryFailure(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]any{"senha": "abc"})
	result := ValidateStep(store.Steps()[0], store)

	want := map[string]string{
		"nome":         "Nome is required",
		"senha":        "A senha deve ter no mínimo 8 caracteres",
		"confirmSenha": "Confirmar senha is required",
	}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateStep_PasswordConfirmation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]any{
		"nome":         "Ana",
		"senha":        "abcdefgh",
		"confirmSenha": "abcdefg",
	})
	result := ValidateStep(store.Steps()[0], store)
	if diff := cmp.Diff(map[string]string{"confirmSenha": "Senhas não coincidem"}, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if err := store.SetValue("confirmSenha", "abcdefgh"); err != nil {
		t.Fatalf("set value: %v", err)
	}
	result = ValidateStep(store.Steps()[0], store)
	if !result.Valid {
		t.Fatalf("expected valid after correction, got %v", result.Errors)
	}
}

func TestValidateStep_IsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]any{"senha": "short", "accessLevel": "ADMINISTRADOR"})
	before := store.Values()

	first := ValidateStep(store.Steps()[0], store)
	second := ValidateStep(store.Steps()[0], store)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("validation not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, store.Values()); diff != "" {
		t.Fatalf("validation mutated values (-before +after):\n%s", diff)
	}
	if len(store.FieldErrors()) != 0 {
		t.Fatalf("validation wrote errors into the store: %v", store.FieldErrors())
	}
}

func TestValidateStep_RejectsUnknownOption(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, map[string]any{"accessLevel": "ROOT"})
	result := ValidateStep(store.Steps()[1], store)
	msg, ok := result.Errors["accessLevel"]
	if !ok {
		t.Fatalf("expected option error, got %v", result.Errors)
	}
	if msg != `"ROOT" is not a valid option for Nível de acesso` {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestValidateStep_OptionalValidatorSkipsEmpty(t *testing.T) {
	t.Parallel()

	steps := []Step{{Fields: []field.Spec{
		{Name: "phone", Kind: field.KindText, Validate: field.MinLength(10, "")},
	}}}
	store, err := NewStore(steps, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if result := ValidateStep(steps[0], store); !result.Valid {
		t.Fatalf("expected empty optional field to pass, got %v", result.Errors)
	}
}

func TestEngine_CustomMessages(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Messages{
		Required: func(spec field.Spec) string { return spec.DisplayLabel() + " é obrigatório" },
	})
	store := newTestStore(t, nil)
	result := engine.ValidateStep(store.Steps()[0], store)
	if got := result.Errors["nome"]; got != "Nome é obrigatório" {
		t.Fatalf("unexpected message %q", got)
	}
}
