package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orivus/internal/spec"
)

func act(name string, kind spec.ActionKind, out spec.ActionOutput) spec.ParsedAction {
	if out.Kind == "" {
		out = spec.VoidOutput()
	}
	return spec.ParsedAction{Name: name, Type: kind, Output: out}
}

var (
	userList = spec.ActionOutput{Kind: spec.OutputModel, ModelName: "User", IsArray: true}
	oneUser  = spec.ActionOutput{Kind: spec.OutputModel, ModelName: "User"}
	number   = spec.ActionOutput{Kind: spec.OutputPrimitive, Type: spec.TypeNumber}
)

func TestFindCreate_ExplicitBeatsName(t *testing.T) {
	list := []spec.ParsedAction{
		act("createFoo", "", oneUser),
		act("weirdName", spec.KindCreate, oneUser),
	}

	got, ok := FindCreate(list)
	require.True(t, ok)
	assert.Equal(t, "weirdName", got.Name)
}

func TestFindCreate_Heuristics(t *testing.T) {
	tests := []struct {
		name    string
		actions []spec.ParsedAction
		want    string
	}{
		{"create prefix", []spec.ParsedAction{act("listUsers", "", userList), act("createUser", "", oneUser)}, "createUser"},
		{"case insensitive", []spec.ParsedAction{act("RegisterMember", "", oneUser)}, "RegisterMember"},
		{"schedule", []spec.ParsedAction{act("scheduleVisit", "", oneUser)}, "scheduleVisit"},
		{"typed actions are not guessed", []spec.ParsedAction{act("addUser", spec.KindCustom, oneUser)}, ""},
		{"no mutation fallback", []spec.ParsedAction{act("archiveUser", "", oneUser)}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindCreate(tt.actions)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, got)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestFindList_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		actions []spec.ParsedAction
		want    string
	}{
		{"explicit", []spec.ParsedAction{act("allUsers", "", userList), act("browse", spec.KindList, oneUser)}, "browse"},
		{"array output before name", []spec.ParsedAction{act("listThings", "", oneUser), act("recent", "", userList)}, "recent"},
		{"prefix", []spec.ParsedAction{act("searchUsers", "", oneUser)}, "searchUsers"},
		{"getAll prefix", []spec.ParsedAction{act("getAllUsers", "", oneUser)}, "getAllUsers"},
		{"substring", []spec.ParsedAction{act("usersOverall", "", oneUser)}, "usersOverall"},
		{"none", []spec.ParsedAction{act("createUser", "", oneUser)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindList(tt.actions)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestFindGet(t *testing.T) {
	list := []spec.ParsedAction{
		act("getUsers", "", userList),
		act("findUser", "", oneUser),
	}
	got, ok := FindGet(list)
	require.True(t, ok)
	assert.Equal(t, "findUser", got.Name, "array outputs are lists, not gets")

	list = append(list, act("profile", spec.KindGet, oneUser))
	got, ok = FindGet(list)
	require.True(t, ok)
	assert.Equal(t, "profile", got.Name)

	_, ok = FindGet([]spec.ParsedAction{act("getUsers", "", userList)})
	assert.False(t, ok)
}

func TestFind_ReturnsPointerIntoSlice(t *testing.T) {
	list := []spec.ParsedAction{act("createUser", "", oneUser)}
	got, ok := FindCreate(list)
	require.True(t, ok)
	assert.Same(t, &list[0], got)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		action spec.ParsedAction
		want   spec.ActionKind
	}{
		{act("anything", spec.KindCount, oneUser), spec.KindCount},
		{act("createUser", "", oneUser), spec.KindCreate},
		{act("addUsers", "", userList), spec.KindCreate},
		{act("editProfile", "", oneUser), spec.KindUpdate},
		{act("completeTask", "", oneUser), spec.KindCustom},
		{act("revokeToken", "", spec.ActionOutput{Kind: spec.OutputPrimitive, Type: spec.TypeBoolean}), spec.KindDelete},
		{act("recent", "", userList), spec.KindList},
		{act("listUsers", "", spec.VoidOutput()), spec.KindList},
		{act("countUsers", "", spec.ActionOutput{Kind: spec.OutputPrimitive, Type: spec.TypeString}), spec.KindCount},
		{act("total", "", number), spec.KindCount},
		{act("getUser", "", oneUser), spec.KindGet},
		{act("showUser", "", oneUser), spec.KindGet},
		{act("ping", "", spec.VoidOutput()), spec.KindCustom},
	}
	for _, tt := range tests {
		t.Run(tt.action.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.action))
		})
	}
}

func TestIsMutation(t *testing.T) {
	tests := []struct {
		action spec.ParsedAction
		want   bool
	}{
		{act("createUser", "", oneUser), true},
		{act("setRole", "", oneUser), true},
		{act("unlinkAccount", "", spec.VoidOutput()), true},
		{act("listUsers", "", userList), false},
		{act("getUser", "", oneUser), false},
		{act("ping", "", spec.VoidOutput()), false},
		{act("patchNotes", "", oneUser), false},
		{act("completeProfile", "", oneUser), false},
		{act("createReport", spec.KindGet, oneUser), false},
		{act("touch", spec.KindUpdate, oneUser), true},
		{act("recompute", spec.KindCustom, oneUser), false},
	}
	for _, tt := range tests {
		t.Run(tt.action.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMutation(tt.action))
		})
	}
}
