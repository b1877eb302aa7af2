package models

// Patch types carry partial updates. A nil field leaves the stored value untouched.

type TournamentPatch struct {
	Name        *string           `json:"name,omitempty"`
	Date        *string           `json:"date,omitempty"`
	Description *string           `json:"description,omitempty"`
	Status      *TournamentStatus `json:"status,omitempty"`
}

func (p TournamentPatch) Apply(t *Tournament) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}

type ParticipantPatch struct {
	Name     *string  `json:"name,omitempty"`
	Age      *int     `json:"age,omitempty"`
	Gender   *string  `json:"gender,omitempty"`
	Division *string  `json:"division,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Country  *string  `json:"country,omitempty"`
	State    *string  `json:"state,omitempty"`
}

func (p ParticipantPatch) Apply(pt *Participant) {
	if p.Name != nil {
		pt.Name = *p.Name
	}
	if p.Age != nil {
		age := *p.Age
		pt.Age = &age
	}
	if p.Gender != nil {
		pt.Gender = *p.Gender
	}
	if p.Division != nil {
		pt.Division = *p.Division
	}
	if p.Weight != nil {
		w := *p.Weight
		pt.Weight = &w
	}
	if p.Phone != nil {
		pt.Phone = *p.Phone
	}
	if p.Country != nil {
		pt.Country = *p.Country
	}
	if p.State != nil {
		pt.State = *p.State
	}
}

// ParticipantFromPatch builds a fresh participant from a create payload.
func ParticipantFromPatch(p ParticipantPatch) Participant {
	var pt Participant
	p.Apply(&pt)
	return pt
}

type EventPatch struct {
	Name      *string      `json:"name,omitempty"`
	Date      *string      `json:"date,omitempty"`
	Category  *string      `json:"category,omitempty"`
	Divisions []string     `json:"divisions,omitempty"`
	Metrics   []string     `json:"metrics,omitempty"`
	Status    *EventStatus `json:"status,omitempty"`
}

func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Divisions != nil {
		e.Divisions = append([]string(nil), p.Divisions...)
	}
	if p.Metrics != nil {
		e.Metrics = append([]string(nil), p.Metrics...)
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
}

// DataPatch is the partial form of EventParticipantData. Videos and attempts are
// only ever appended through their own operations.
type DataPatch struct {
	Time   *string  `json:"time,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

func (p DataPatch) Apply(d *EventParticipantData) {
	if p.Time != nil {
		v := *p.Time
		d.Time = &v
	}
	if p.Reps != nil {
		v := *p.Reps
		d.Reps = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		d.Weight = &v
	}
}

func (p DataPatch) IsEmpty() bool {
	return p.Time == nil && p.Reps == nil && p.Weight == nil
}
