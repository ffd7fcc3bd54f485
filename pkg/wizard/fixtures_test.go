package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-formwizard/pkg/field"
)

func userSteps() []Step {
	return []Step{
		{
			Title: "Conta",
			Fields: []field.Spec{
				{Name: "nome", Label: "Nome", Kind: field.KindText, Required: true},
				{
					Name:     "senha",
					Label:    "Senha",
					Kind:     field.KindPassword,
					Required: true,
					Validate: field.MinLength(8, "A senha deve ter no mínimo 8 caracteres"),
				},
				{
					Name:          "confirmSenha",
					Label:         "Confirmar senha",
					Kind:          field.KindPassword,
					Required:      true,
					ValidateEmpty: true,
					Validate: func(v any, all field.Values) error {
						if v != all["senha"] {
							return errors.New("Senhas não coincidem")
						}
						return nil
					},
				},
			},
		},
		{
			Title: "Acesso",
			Fields: []field.Spec{
				{Kind: field.KindHeading, Label: "Permissões"},
				{
					Name:     "accessLevel",
					Label:    "Nível de acesso",
					Kind:     field.KindSelect,
					Required: true,
					Options: []field.Option{
						{Value: "ADMINISTRADOR", Label: "Administrador"},
						{Value: "CORRETOR", Label: "Corretor"},
						{Value: "CLIENTE", Label: "Cliente"},
					},
				},
				{
					Name:     "creci",
					Label:    "CRECI",
					Kind:     field.KindText,
					Required: true,
					Conditional: &field.Conditional{
						DependsOn:   "accessLevel",
						Equals:      "ADMINISTRADOR",
						ClearOnHide: true,
					},
				},
			},
		},
	}
}

// recorder is a scripted SubmitFunc.
type recorder struct {
	mu     sync.Mutex
	calls  int
	values []field.Values
	result SubmitResult
	err    error
}

func (r *recorder) submit(_ context.Context, values field.Values) (SubmitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.values = append(r.values, values)
	return r.result, r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func mustController(t *testing.T, steps []Step, submit SubmitFunc, opts ...Option) *Controller {
	t.Helper()
	c, err := New(steps, submit, opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func change(t *testing.T, c *Controller, values map[string]any) {
	t.Helper()
	for name, v := range values {
		if err := c.HandleFieldChange(name, v); err != nil {
			t.Fatalf("change %s: %v", name, err)
		}
	}
}
