package llm

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type card struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
}

var testValidate = validator.New()

func cardSchema() Schema[[]card] {
	return Schema[[]card]{
		Name:     "cards",
		Nullable: true,
		Validate: func(cs []card) error { return testValidate.Var(cs, "dive") },
	}
}

const plainCards = `[{"front":"What is Go?","back":"A language"},{"front":"Who made it?","back":"Google"}]`

func TestRepair_FencedAndUnfencedParseIdentically(t *testing.T) {
	inputs := []string{
		plainCards,
		"```json\n" + plainCards + "\n```",
		"```\n" + plainCards + "\n```",
		"  \n```JSON\n" + plainCards + "\n```  \n",
		"Here you go:\n```json\n" + plainCards + "\n```\nEnjoy!",
	}
	want := Repair(plainCards, cardSchema())
	require.Equal(t, RepairOK, want.Kind)
	require.Len(t, want.Value, 2)

	for _, in := range inputs {
		got := Repair(in, cardSchema())
		assert.Equal(t, RepairOK, got.Kind, in)
		assert.Equal(t, want.Value, got.Value, in)
	}
}

func TestRepair_DoubleEncodedJSON(t *testing.T) {
	doubled := `"[{\"front\":\"What is Go?\",\"back\":\"A language\"}]"`

	got := Repair(doubled, cardSchema())

	require.Equal(t, RepairOK, got.Kind)
	assert.Equal(t, []card{{Front: "What is Go?", Back: "A language"}}, got.Value)
}

func TestRepair_ProseIsParseError(t *testing.T) {
	got := Repair("I cannot help with that.", cardSchema())

	assert.Equal(t, RepairParseError, got.Kind)
	var perr *ResponseParseError
	require.ErrorAs(t, got.Err, &perr)
	assert.Equal(t, "I cannot help with that.", perr.Content)
}

func TestRepair_EmptyIsParseError(t *testing.T) {
	assert.Equal(t, RepairParseError, Repair("   ", cardSchema()).Kind)
}

func TestRepair_SchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"object instead of array": `{"front":"a","back":"b"}`,
		"missing back":            `[{"front":"a"}]`,
		"number front":            `[{"front":5,"back":"b"}]`,
		"bare string":             `"just words"`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got := Repair(in, cardSchema())
			require.Equal(t, RepairSchemaError, got.Kind)
			var serr *SchemaValidationError
			require.ErrorAs(t, got.Err, &serr)
			assert.NotEmpty(t, serr.Diagnostics)
			assert.Equal(t, "cards", serr.Schema)
		})
	}
}

func TestRepair_NullableNullIsEmpty(t *testing.T) {
	got := Repair("null", cardSchema())

	require.Equal(t, RepairOK, got.Kind)
	assert.Empty(t, got.Value)
}

func TestRepair_NullRejectedWhenNotNullable(t *testing.T) {
	schema := cardSchema()
	schema.Nullable = false

	assert.Equal(t, RepairSchemaError, Repair("null", schema).Kind)
}

func TestRepair_Idempotent(t *testing.T) {
	for _, in := range []string{plainCards, "```json\n" + plainCards + "\n```", "nope", `[{"front":""}]`} {
		first := Repair(in, cardSchema())
		second := Repair(in, cardSchema())
		assert.Equal(t, first.Kind, second.Kind)
		assert.Equal(t, first.Value, second.Value)
	}
}

func TestRepaired_Unwrap(t *testing.T) {
	v, err := Repair(plainCards, cardSchema()).Unwrap()
	require.NoError(t, err)
	assert.Len(t, v, 2)

	v, err = Repair("nope", cardSchema()).Unwrap()
	assert.Error(t, err)
	assert.Nil(t, v)
}

func TestDiagnostics_ValidatorErrors(t *testing.T) {
	err := testValidate.Var([]card{{Front: "a"}}, "dive")

	diags := Diagnostics(err)

	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "Back")
	assert.Contains(t, diags[0], "required")
}
