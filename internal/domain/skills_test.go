package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineRequirementMassRU(t *testing.T) {
	req := DetermineRequirement(SegmentMass, TypeConsultation, LangRU)
	assert.Empty(t, req.RequiredSkills)
	assert.Empty(t, req.MinPosition)
}

func TestDetermineRequirementVIPSegment(t *testing.T) {
	for _, seg := range []Segment{SegmentVIP, SegmentPriority} {
		req := DetermineRequirement(seg, TypeConsultation, LangRU)
		assert.True(t, req.RequiredSkills.Has("VIP"), "segment %s must require VIP", seg)
	}
}

func TestDetermineRequirementAdditive(t *testing.T) {
	// VIP segment + Kazakh language requires both skills.
	req := DetermineRequirement(SegmentVIP, TypeComplaint, LangKZ)
	assert.True(t, req.RequiredSkills.Has("VIP"))
	assert.True(t, req.RequiredSkills.Has("KZ"))
	assert.False(t, req.RequiresChief())
}

func TestDetermineRequirementDataChangeNeedsChief(t *testing.T) {
	req := DetermineRequirement(SegmentMass, TypeDataChange, LangENG)
	assert.Equal(t, PositionChiefSpecialist, req.MinPosition)
	assert.True(t, req.RequiredSkills.Has("ENG"))
	assert.False(t, req.RequiredSkills.Has("VIP"))
}

func TestManagerSatisfies(t *testing.T) {
	req := DetermineRequirement(SegmentVIP, TypeDataChange, LangKZ)

	tests := []struct {
		name     string
		skills   SkillSet
		position Position
		want     bool
	}{
		{"all skills chief", NewSkillSet("VIP", "KZ"), PositionChiefSpecialist, true},
		{"missing language skill", NewSkillSet("VIP"), PositionChiefSpecialist, false},
		{"not chief", NewSkillSet("VIP", "KZ"), PositionSeniorSpecialist, false},
		{"extra skills fine", NewSkillSet("VIP", "KZ", "ENG"), PositionChiefSpecialist, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ManagerSatisfies(tt.skills, tt.position, req))
		})
	}
}

func TestManagerSatisfiesNoRequirement(t *testing.T) {
	req := DetermineRequirement(SegmentMass, TypeConsultation, LangRU)
	assert.True(t, ManagerSatisfies(NewSkillSet(), PositionSpecialist, req))
}
