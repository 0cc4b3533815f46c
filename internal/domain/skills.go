package domain

// SkillRequirement is the outcome of the skill policy: the skills a
// manager must carry and, optionally, a minimum rank.
type SkillRequirement struct {
	RequiredSkills SkillSet
	MinPosition    Position // "" = any position is fine
}

// RequiresChief reports whether the requirement demands the chief
// specialist rank.
func (r SkillRequirement) RequiresChief() bool {
	return r.MinPosition == PositionChiefSpecialist
}

// DetermineRequirement maps ticket attributes to a SkillRequirement.
//
// Business rules (additive):
//  1. VIP / Priority segment  → manager must have the "VIP" skill.
//  2. Смена данных            → only Главный специалист may handle it.
//  3. language KZ             → manager must have the "KZ" skill.
//  4. language ENG            → manager must have the "ENG" skill.
//  5. language RU             → no extra language skill.
//
// A VIP ticket in Kazakh therefore requires both "VIP" and "KZ".
func DetermineRequirement(segment Segment, ticketType TicketType, language Language) SkillRequirement {
	skills := NewSkillSet()
	var minPosition Position

	if segment.RequiresVIPHandling() {
		skills["VIP"] = true
	}

	if ticketType == TypeDataChange {
		minPosition = PositionChiefSpecialist
	}

	switch language {
	case LangKZ:
		skills["KZ"] = true
	case LangENG:
		skills["ENG"] = true
	}

	return SkillRequirement{RequiredSkills: skills, MinPosition: minPosition}
}

// ManagerSatisfies checks whether a manager's skills and rank meet
// the requirement.
func ManagerSatisfies(skills SkillSet, position Position, req SkillRequirement) bool {
	if !skills.ContainsAll(req.RequiredSkills) {
		return false
	}
	if req.RequiresChief() && position != PositionChiefSpecialist {
		return false
	}
	return true
}
