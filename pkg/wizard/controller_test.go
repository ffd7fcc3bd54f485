package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/field"
)

var validAccount = map[string]any{
	"nome":         "Ana",
	"senha":        "abcdefgh",
	"confirmSenha": "abcdefgh",
}

func TestController_ConditionalRequiredOnAdvance(t *testing.T) {
	t.Parallel()

	steps := []Step{userSteps()[1], {Title: "Revisão", Fields: []field.Spec{{Name: "notes", Kind: field.KindText}}}}
	c := mustController(t, steps, (&recorder{}).submit)

	change(t, c, map[string]any{"accessLevel": "CLIENTE"})
	ok, err := c.Advance(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected advance with hidden creci, got ok=%v err=%v", ok, err)
	}

	if _, err := c.Retreat(); err != nil {
		t.Fatalf("retreat: %v", err)
	}
	change(t, c, map[string]any{"accessLevel": "ADMINISTRADOR"})
	ok, err = c.Advance(context.Background())
	if err != nil || ok {
		t.Fatalf("expected blocked advance, got ok=%v err=%v", ok, err)
	}
	snap := c.Snapshot()
	if _, has := snap.FieldErrors["creci"]; !has {
		t.Fatalf("expected creci error, got %v", snap.FieldErrors)
	}
	if snap.CurrentStepIndex != 0 {
		t.Fatalf("expected to stay on step 0, got %d", snap.CurrentStepIndex)
	}
}

func TestController_ErrorClearedOnChange(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit)
	if ok, _ := c.Advance(context.Background()); ok {
		t.Fatalf("expected invalid first step")
	}
	if _, has := c.Snapshot().FieldErrors["senha"]; !has {
		t.Fatalf("expected senha error")
	}

	// still invalid, but the error only returns on the next validation pass
	change(t, c, map[string]any{"senha": "x"})
	snap := c.Snapshot()
	if _, has := snap.FieldErrors["senha"]; has {
		t.Fatalf("expected senha error cleared, got %v", snap.FieldErrors)
	}
	if _, has := snap.FieldErrors["nome"]; !has {
		t.Fatalf("unrelated errors must survive")
	}
}

func TestController_GoToStepKeepsValues(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit,
		WithInitialValues(map[string]any{"nome": "Ana", "accessLevel": "CORRETOR"}))
	before := c.Snapshot().Values

	for _, idx := range []int{1, 0, 1, 5, -1, 0} {
		if _, err := c.GoToStep(idx); err != nil {
			t.Fatalf("goto %d: %v", idx, err)
		}
	}
	if diff := cmp.Diff(before, c.Snapshot().Values); diff != "" {
		t.Fatalf("values changed by navigation (-before +after):\n%s", diff)
	}
	if len(c.Snapshot().FieldErrors) != 0 {
		t.Fatalf("navigation must not validate")
	}
}

func TestController_SubmitInvalidStepKeepsEarlierValues(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: SubmitResult{Success: true}}
	c := mustController(t, userSteps(), rec.submit)
	change(t, c, validAccount)

	ok, err := c.Advance(context.Background())
	if err != nil || !ok {
		t.Fatalf("advance: ok=%v err=%v", ok, err)
	}
	change(t, c, map[string]any{"accessLevel": "ADMINISTRADOR"})

	outcome, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome != OutcomeInvalid {
		t.Fatalf("expected invalid outcome, got %s", outcome)
	}
	if rec.count() != 0 {
		t.Fatalf("submit collaborator must not run")
	}
	snap := c.Snapshot()
	if snap.CurrentStepIndex != 1 {
		t.Fatalf("expected to stay on step 1, got %d", snap.CurrentStepIndex)
	}
	for name, want := range validAccount {
		if snap.Values[name] != want {
			t.Fatalf("%s changed to %v", name, snap.Values[name])
		}
	}
}

func TestController_SubmitFailureSurfacesGeneralError(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: SubmitResult{Success: false, Errors: []string{"Email already exists"}}}
	c := mustController(t, userSteps()[:1], rec.submit)
	change(t, c, validAccount)

	outcome, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}

	snap := c.Snapshot()
	if diff := cmp.Diff([]string{"Email already exists"}, snap.GeneralErrors); diff != "" {
		t.Fatalf("general errors mismatch (-want +got):\n%s", diff)
	}
	if snap.IsLoading || snap.CurrentStepIndex != 0 || snap.Phase != PhaseEditing {
		t.Fatalf("unexpected state %+v", snap)
	}
	for name, want := range validAccount {
		if snap.Values[name] != want {
			t.Fatalf("%s lost after failure", name)
		}
	}
}

func TestController_SubmitErrorIsTreatedAsFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: errors.New("connection refused")}
	c := mustController(t, userSteps()[:1], rec.submit)
	change(t, c, validAccount)

	outcome, err := c.Submit(context.Background())
	if err != nil || outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s err=%v", outcome, err)
	}
	if diff := cmp.Diff([]string{"connection refused"}, c.Snapshot().GeneralErrors); diff != "" {
		t.Fatalf("general errors mismatch (-want +got):\n%s", diff)
	}
}

func TestController_SubmitFieldErrorsFromBackend(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: SubmitResult{FieldErrors: map[string][]string{
		"/body/nome": {"Nome já cadastrado"},
		"unknown":    {"Falha interna"},
	}}}
	c := mustController(t, userSteps()[:1], rec.submit)
	change(t, c, validAccount)

	if outcome, _ := c.Submit(context.Background()); outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", outcome)
	}
	snap := c.Snapshot()
	if snap.FieldErrors["nome"] != "Nome já cadastrado" {
		t.Fatalf("expected mapped field error, got %v", snap.FieldErrors)
	}
	if diff := cmp.Diff([]string{"Falha interna"}, snap.GeneralErrors); diff != "" {
		t.Fatalf("general errors mismatch (-want +got):\n%s", diff)
	}
}

func TestController_SubmitSuccess(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: SubmitResult{Success: true, Message: "Usuário criado"}}
	c := mustController(t, userSteps()[:1], rec.submit)
	change(t, c, validAccount)

	ok, err := c.Advance(context.Background())
	if err != nil || !ok {
		t.Fatalf("advance on last step should submit: ok=%v err=%v", ok, err)
	}
	snap := c.Snapshot()
	if snap.Phase != PhaseSubmitted || snap.SuccessMessage != "Usuário criado" {
		t.Fatalf("unexpected state %+v", snap)
	}
	if rec.count() != 1 {
		t.Fatalf("expected one submit, got %d", rec.count())
	}
	if diff := cmp.Diff(field.Values{
		"nome":         "Ana",
		"senha":        "abcdefgh",
		"confirmSenha": "abcdefgh",
	}, rec.values[0]); diff != "" {
		t.Fatalf("submitted values mismatch (-want +got):\n%s", diff)
	}
}

func TestController_SubmitSuccessWithReset(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: SubmitResult{Success: true, Message: "ok", Reset: true}}
	c := mustController(t, userSteps()[:1], rec.submit)
	change(t, c, validAccount)

	if outcome, _ := c.Submit(context.Background()); outcome != OutcomeSubmitted {
		t.Fatalf("expected submitted outcome, got %s", outcome)
	}
	snap := c.Snapshot()
	if snap.Values["nome"] != "" {
		t.Fatalf("expected values reset, got %v", snap.Values)
	}
	if snap.SuccessMessage != "ok" {
		t.Fatalf("success message must survive the reset")
	}
}

func TestController_SingleInFlightSubmit(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	submit := func(ctx context.Context, _ field.Values) (SubmitResult, error) {
		calls++
		close(started)
		<-release
		return SubmitResult{Success: true}, nil
	}
	c := mustController(t, userSteps(), submit, WithInitialValues(validAccount))
	if _, err := c.GoToStep(1); err != nil {
		t.Fatalf("goto: %v", err)
	}
	change(t, c, map[string]any{"accessLevel": "CLIENTE"})

	done := make(chan Outcome)
	go func() {
		outcome, _ := c.Submit(context.Background())
		done <- outcome
	}()
	<-started

	before := c.Snapshot()
	if !before.IsLoading || before.Phase != PhaseSubmitting {
		t.Fatalf("expected loading snapshot, got %+v", before)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("second submit: expected ErrSubmitInFlight, got %v", err)
	}
	if _, err := c.Advance(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("advance: expected ErrSubmitInFlight, got %v", err)
	}
	if _, err := c.Retreat(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("retreat: expected ErrSubmitInFlight, got %v", err)
	}
	if _, err := c.GoToStep(0); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("goto: expected ErrSubmitInFlight, got %v", err)
	}
	if err := c.Cancel(); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("cancel: expected ErrSubmitInFlight, got %v", err)
	}
	if diff := cmp.Diff(before, c.Snapshot()); diff != "" {
		t.Fatalf("rejected commands changed state (-before +after):\n%s", diff)
	}

	close(release)
	select {
	case outcome := <-done:
		if outcome != OutcomeSubmitted {
			t.Fatalf("expected submitted, got %s", outcome)
		}
	case <-time.After(time.Second):
		t.Fatalf("submit did not finish")
	}
	if calls != 1 {
		t.Fatalf("expected one collaborator call, got %d", calls)
	}
}

func TestController_ConditionalClearOnToggle(t *testing.T) {
	t.Parallel()

	steps := []Step{{Fields: []field.Spec{
		{Name: "enableStandAddress", Kind: field.KindCheckbox},
		{
			Name:        "standStreet",
			Kind:        field.KindText,
			Required:    true,
			Conditional: &field.Conditional{DependsOn: "enableStandAddress", Equals: true, ClearOnHide: true},
		},
	}}}
	c := mustController(t, steps, (&recorder{}).submit)

	change(t, c, map[string]any{"enableStandAddress": true})
	change(t, c, map[string]any{"standStreet": "Rua A"})
	c.mu.Lock()
	c.store.SetFieldErrors(map[string]string{"standStreet": "stale"})
	c.mu.Unlock()

	change(t, c, map[string]any{"enableStandAddress": false})

	snap := c.Snapshot()
	if snap.Values["standStreet"] != "" {
		t.Fatalf("expected dependent cleared, got %v", snap.Values["standStreet"])
	}
	if _, has := snap.FieldErrors["standStreet"]; has {
		t.Fatalf("expected dependent error removed")
	}
	if !snap.IsHidden("standStreet") {
		t.Fatalf("expected standStreet hidden, got %v", snap.Hidden)
	}
}

func TestController_ClearCurrentStep(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit,
		WithInitialValues(map[string]any{"nome": "Ana", "accessLevel": "ADMINISTRADOR", "creci": "123"}))
	if _, err := c.GoToStep(1); err != nil {
		t.Fatalf("goto: %v", err)
	}
	c.ClearCurrentStep()

	snap := c.Snapshot()
	if snap.Values["accessLevel"] != "" || snap.Values["creci"] != "" {
		t.Fatalf("expected step cleared, got %v", snap.Values)
	}
	if snap.Values["nome"] != "Ana" {
		t.Fatalf("other step changed")
	}
}

func TestController_ValidateCurrentStepStaysInPlace(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit,
		WithInitialValues(map[string]any{"nome": "Ana", "senha": "curta"}))
	if c.ValidateCurrentStep() {
		t.Fatalf("expected invalid step")
	}
	snap := c.Snapshot()
	want := map[string]string{
		"senha":        "A senha deve ter no mínimo 8 caracteres",
		"confirmSenha": "Confirmar senha is required",
	}
	if diff := cmp.Diff(want, snap.FieldErrors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if snap.CurrentStepIndex != 0 {
		t.Fatalf("validation must not move, got step %d", snap.CurrentStepIndex)
	}

	change(t, c, validAccount)
	if !c.ValidateCurrentStep() {
		t.Fatalf("expected valid step, got %v", c.Snapshot().FieldErrors)
	}
	if len(c.Snapshot().FieldErrors) != 0 {
		t.Fatalf("expected errors cleared")
	}
}

func TestController_CancelRestoresAndNotifies(t *testing.T) {
	t.Parallel()

	cancelled := 0
	c := mustController(t, userSteps(), (&recorder{}).submit,
		WithInitialValues(map[string]any{"nome": "Ana"}),
		WithOnCancel(func() { cancelled++ }))

	change(t, c, map[string]any{"nome": "Bia"})
	_, _ = c.Advance(context.Background())
	_, _ = c.GoToStep(1)

	if err := c.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	snap := c.Snapshot()
	if snap.Values["nome"] != "Ana" || snap.CurrentStepIndex != 0 || len(snap.FieldErrors) != 0 {
		t.Fatalf("cancel did not restore: %+v", snap)
	}
	if cancelled != 1 {
		t.Fatalf("expected one cancel notification, got %d", cancelled)
	}
}

func TestController_ValidateAllOnSubmit(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: SubmitResult{Success: true}}
	c := mustController(t, userSteps(), rec.submit, WithValidateAllOnSubmit())
	_, _ = c.GoToStep(1)
	change(t, c, map[string]any{"accessLevel": "CLIENTE"})

	outcome, err := c.Submit(context.Background())
	if err != nil || outcome != OutcomeInvalid {
		t.Fatalf("expected invalid outcome, got %s err=%v", outcome, err)
	}
	snap := c.Snapshot()
	if snap.CurrentStepIndex != 0 {
		t.Fatalf("expected jump to first invalid step, got %d", snap.CurrentStepIndex)
	}
	if _, has := snap.FieldErrors["nome"]; !has {
		t.Fatalf("expected step 0 errors, got %v", snap.FieldErrors)
	}
}

func TestController_Delete(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit)
	if err := c.Delete(context.Background()); !errors.Is(err, ErrDeleteUnsupported) {
		t.Fatalf("expected ErrDeleteUnsupported, got %v", err)
	}

	var deleted field.Values
	c = mustController(t, userSteps(), (&recorder{}).submit,
		WithInitialValues(map[string]any{"nome": "Ana"}),
		WithOnDelete(func(_ context.Context, values field.Values) error {
			deleted = values
			return nil
		}))
	if err := c.Delete(context.Background()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted["nome"] != "Ana" {
		t.Fatalf("delete received %v", deleted)
	}
}

func TestNew_RequiresSubmit(t *testing.T) {
	t.Parallel()

	if _, err := New(userSteps(), nil); err == nil {
		t.Fatalf("expected error without submit function")
	}
}

func TestController_SubmitPanicIsTreatedAsFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	submit := func(context.Context, field.Values) (SubmitResult, error) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return SubmitResult{Success: true}, nil
	}
	c := mustController(t, userSteps(), submit, WithInitialValues(validAccount))
	_, _ = c.GoToStep(1)
	change(t, c, map[string]any{"accessLevel": "CLIENTE"})

	outcome, err := c.Submit(context.Background())
	if err != nil || outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s err=%v", outcome, err)
	}
	snap := c.Snapshot()
	if snap.IsLoading || snap.Phase != PhaseEditing {
		t.Fatalf("expected controller released after panic, got loading=%v phase=%s", snap.IsLoading, snap.Phase)
	}
	if diff := cmp.Diff([]string{"submit failed: boom"}, snap.GeneralErrors); diff != "" {
		t.Fatalf("general errors mismatch (-want +got):\n%s", diff)
	}
	if snap.Values["accessLevel"] != "CLIENTE" || snap.CurrentStepIndex != 1 {
		t.Fatalf("expected values and step preserved, got %+v", snap)
	}

	if outcome, err := c.Submit(context.Background()); err != nil || outcome != OutcomeSubmitted {
		t.Fatalf("resubmit: got %s err=%v", outcome, err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatalf("cancel after recovery: %v", err)
	}
}

func TestController_AdvanceOnLastStepSubmitsThatStep(t *testing.T) {
	t.Parallel()

	var (
		submittedFrom []int
		c             *Controller
	)
	submit := func(context.Context, field.Values) (SubmitResult, error) {
		submittedFrom = append(submittedFrom, c.Snapshot().CurrentStepIndex)
		return SubmitResult{}, errors.New("rejected")
	}
	c = mustController(t, userSteps(), submit, WithInitialValues(validAccount))
	change(t, c, map[string]any{"accessLevel": "CLIENTE"})

	stop := make(chan struct{})
	jumped := make(chan struct{})
	go func() {
		defer close(jumped)
		for {
			select {
			case <-stop:
				return
			default:
				_, _ = c.GoToStep(0)
				_, _ = c.GoToStep(1)
			}
		}
	}()
	for i := 0; i < 50; i++ {
		_, _ = c.Advance(context.Background())
	}
	close(stop)
	<-jumped

	for _, step := range submittedFrom {
		if step != 1 {
			t.Fatalf("submit ran while on step %d, want the last step only (%v)", step, submittedFrom)
		}
	}
}

func TestController_RetreatOnFirstStepIsNoop(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit, WithInitialValues(map[string]any{"nome": "Ana"}))
	before := c.Snapshot()

	moved, err := c.Retreat()
	if err != nil || moved {
		t.Fatalf("expected no move on step 0, got moved=%v err=%v", moved, err)
	}
	if diff := cmp.Diff(before, c.Snapshot()); diff != "" {
		t.Fatalf("retreat changed state (-before +after):\n%s", diff)
	}
}

func TestController_ValidationClearsHiddenFields(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit,
		WithInitialValues(map[string]any{"accessLevel": "CLIENTE", "creci": "12345-F"}))
	_, _ = c.GoToStep(1)
	if got := c.Snapshot().Values["creci"]; got != "12345-F" {
		t.Fatalf("expected seeded creci, got %v", got)
	}

	if !c.ValidateCurrentStep() {
		t.Fatalf("expected step to validate with creci hidden: %v", c.Snapshot().FieldErrors)
	}
	if got := c.Snapshot().Values["creci"]; got != "" {
		t.Fatalf("expected hidden creci cleared by validation, got %v", got)
	}
}

func TestController_ClearOnHideFollowsChains(t *testing.T) {
	t.Parallel()

	steps := []Step{{Fields: []field.Spec{
		{Name: "hasStand", Kind: field.KindCheckbox},
		{
			Name:        "standType",
			Kind:        field.KindSelect,
			Options:     []field.Option{{Value: "mall"}, {Value: "street"}},
			Conditional: &field.Conditional{DependsOn: "hasStand", Equals: true, ClearOnHide: true},
		},
		{
			Name:        "mallName",
			Kind:        field.KindText,
			Conditional: &field.Conditional{DependsOn: "standType", Equals: "mall", ClearOnHide: true},
		},
	}}}
	c := mustController(t, steps, (&recorder{}).submit)
	change(t, c, map[string]any{"hasStand": true})
	change(t, c, map[string]any{"standType": "mall"})
	change(t, c, map[string]any{"mallName": "Shopping Center"})

	change(t, c, map[string]any{"hasStand": false})

	snap := c.Snapshot()
	want := map[string]any{"hasStand": false, "standType": "", "mallName": ""}
	got := map[string]any{"hasStand": snap.Values["hasStand"], "standType": snap.Values["standType"], "mallName": snap.Values["mallName"]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("chained clear mismatch (-want +got):\n%s", diff)
	}
}

func TestController_CustomMessages(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit, WithMessages(Messages{
		Required: func(spec field.Spec) string { return spec.DisplayLabel() + " é obrigatório" },
	}))
	if ok, _ := c.Advance(context.Background()); ok {
		t.Fatalf("expected blocked advance")
	}
	if got := c.Snapshot().FieldErrors["nome"]; got != "Nome é obrigatório" {
		t.Fatalf("nome error = %q", got)
	}
}

func TestController_ValidateAllCollectsEveryStep(t *testing.T) {
	t.Parallel()

	c := mustController(t, userSteps(), (&recorder{}).submit, WithValidateAllOnSubmit(),
		WithInitialValues(map[string]any{"nome": "Ana", "senha": "abcdefgh", "confirmSenha": "abcdefgh"}))
	_, _ = c.GoToStep(1)

	if outcome, _ := c.Submit(context.Background()); outcome != OutcomeInvalid {
		t.Fatalf("expected invalid outcome, got %s", outcome)
	}
	snap := c.Snapshot()
	if snap.CurrentStepIndex != 1 {
		t.Fatalf("expected to stay on the only invalid step, got %d", snap.CurrentStepIndex)
	}
	if diff := cmp.Diff(map[string]string{"accessLevel": "Nível de acesso is required"}, snap.FieldErrors); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}
