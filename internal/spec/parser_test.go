package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "orivus/internal/errors"
)

func boolPtr(b bool) *bool { return &b }

func userSpec() *ModuleSpec {
	return &ModuleSpec{
		Name: "user",
		Models: []ModelSchema{{
			Name: "User",
			Fields: []FieldDefinition{
				{Name: "id", Type: TypeString},
				{Name: "email", Type: TypeString, Description: "Login"},
				{Name: "nickname", Type: TypeString, Required: boolPtr(false)},
				{Name: "tags", Type: TypeString, IsArray: boolPtr(true)},
				{Name: "team", Type: TypeRelation, Target: "Team", RelationType: BelongsTo},
				{Name: "createdAt", Type: TypeDate},
			},
		}},
		Actions: []ActionDefinition{
			{Name: "createUser", Type: KindCreate, HasInput: true,
				Input:  []FieldDefinition{{Name: "email", Type: TypeString}},
				Output: &ActionOutput{Kind: OutputModel, ModelName: "User"}},
			{Name: "listUsers", Output: &ActionOutput{Kind: OutputModel, ModelName: "User", IsArray: true}},
			{Name: "countUsers", Output: &ActionOutput{Kind: OutputPrimitive, Type: TypeNumber}},
			{Name: "ping"},
		},
	}
}

func TestParse_Defaults(t *testing.T) {
	p, err := Parse(userSpec())
	require.NoError(t, err)

	assert.Equal(t, "user", p.ModuleName)
	require.Len(t, p.Models, 1)

	user := p.Models[0]
	require.Len(t, user.Fields, 4, "reserved fields are dropped")
	assert.Equal(t, "email", user.Fields[0].Name)

	email := user.Fields[0]
	assert.True(t, email.Required)
	assert.False(t, email.IsArray)
	assert.Equal(t, "Login", email.Description)

	nick, ok := user.Field("nickname")
	require.True(t, ok)
	assert.False(t, nick.Required)

	tags, _ := user.Field("tags")
	assert.True(t, tags.IsArray)

	team, _ := user.Field("team")
	assert.True(t, team.IsRelation())
	assert.Equal(t, "teamId", team.ForeignKey())
	assert.Len(t, user.ScalarFields(), 3)
}

func TestParse_Outputs(t *testing.T) {
	p, err := Parse(userSpec())
	require.NoError(t, err)

	create, _ := p.Action("createUser")
	assert.Equal(t, KindCreate, create.Type)
	assert.Equal(t, ActionOutput{Kind: OutputModel, ModelName: "User"}, create.Output)
	assert.True(t, create.HasInput)
	require.Len(t, create.Input, 1)
	assert.True(t, create.Input[0].Required)

	list, _ := p.Action("listUsers")
	assert.True(t, list.Output.IsArray)

	count, _ := p.Action("countUsers")
	assert.Equal(t, ActionOutput{Kind: OutputPrimitive, Type: TypeNumber}, count.Output)

	ping, _ := p.Action("ping")
	assert.Equal(t, VoidOutput(), ping.Output, "missing output normalizes to void")
	assert.Equal(t, ActionKind(""), ping.Type)
}

func TestParse_KeepsReservedInputFields(t *testing.T) {
	s := userSpec()
	s.Actions = append(s.Actions, ActionDefinition{
		Name:     "updateUser",
		HasInput: true,
		Input:    []FieldDefinition{{Name: "id", Type: TypeString}, {Name: "email", Type: TypeString}},
	})

	p, err := Parse(s)
	require.NoError(t, err)

	update, _ := p.Action("updateUser")
	require.Len(t, update.Input, 2)
	assert.Equal(t, "id", update.Input[0].Name)
}

func TestParse_StructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModuleSpec)
		want   string
	}{
		{"missing name", func(s *ModuleSpec) { s.Name = "" }, "name"},
		{"missing type", func(s *ModuleSpec) { s.Models[0].Fields[1].Type = "" }, "no 'type'"},
		{"unknown type", func(s *ModuleSpec) { s.Models[0].Fields[1].Type = "text" }, "unsupported type"},
		{"relation without target", func(s *ModuleSpec) { s.Models[0].Fields[4].Target = "" }, "requires 'target'"},
		{"relation without kind", func(s *ModuleSpec) { s.Models[0].Fields[4].RelationType = "" }, "relationType"},
		{"relation attrs on primitive", func(s *ModuleSpec) { s.Models[0].Fields[1].Target = "User" }, "only allowed on relation"},
		{"unknown action kind", func(s *ModuleSpec) { s.Actions[0].Type = "upsert" }, "unknown action type"},
		{"unknown output kind", func(s *ModuleSpec) { s.Actions[0].Output.Kind = "stream" }, "unknown output kind"},
		{"model output without name", func(s *ModuleSpec) { s.Actions[0].Output.ModelName = "" }, "modelName"},
		{"unknown output model", func(s *ModuleSpec) { s.Actions[0].Output.ModelName = "Ghost" }, "unknown model"},
		{"relation primitive output", func(s *ModuleSpec) {
			s.Actions[2].Output = &ActionOutput{Kind: OutputPrimitive, Type: TypeRelation}
		}, "primitive 'type'"},
		{"bad input field", func(s *ModuleSpec) { s.Actions[0].Input[0].Type = "" }, "input.email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := userSpec()
			tt.mutate(s)
			_, err := Parse(s)
			require.Error(t, err)
			assert.Equal(t, oerrors.SpecStructure, oerrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Nil(t *testing.T) {
	_, err := Parse(nil)
	require.Error(t, err)
	assert.Equal(t, oerrors.SpecStructure, oerrors.CodeOf(err))
}

func TestParseAll_PrefixesSource(t *testing.T) {
	bad := userSpec()
	bad.Name = ""
	bad.Source = "specs/broken.json"

	_, err := ParseAll([]*ModuleSpec{userSpec(), bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specs/broken.json")
	assert.Equal(t, oerrors.SpecStructure, oerrors.CodeOf(err))
}

func TestParsedModuleSpec_PrimaryModel(t *testing.T) {
	p, err := Parse(&ModuleSpec{Name: "empty"})
	require.NoError(t, err)
	assert.Nil(t, p.PrimaryModel())

	p, err = Parse(userSpec())
	require.NoError(t, err)
	require.NotNil(t, p.PrimaryModel())
	assert.Equal(t, "User", p.PrimaryModel().Name)
}
