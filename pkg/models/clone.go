package models

// Clone helpers return copies that share no mutable memory with the receiver.

func (p Participant) Clone() Participant {
	out := p
	if p.Age != nil {
		v := *p.Age
		out.Age = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		out.Weight = &v
	}
	return out
}

func (d EventParticipantData) Clone() EventParticipantData {
	out := d
	if d.Time != nil {
		v := *d.Time
		out.Time = &v
	}
	if d.Reps != nil {
		v := *d.Reps
		out.Reps = &v
	}
	if d.Weight != nil {
		v := *d.Weight
		out.Weight = &v
	}
	out.Videos = append([]Video{}, d.Videos...)
	out.Attempts = make([]Attempt, len(d.Attempts))
	for i, a := range d.Attempts {
		out.Attempts[i] = a.Clone()
	}
	return out
}

func (a Attempt) Clone() Attempt {
	out := a
	if a.Data != nil {
		out.Data = make(map[string]string, len(a.Data))
		for k, v := range a.Data {
			out.Data[k] = v
		}
	}
	return out
}

func (e Event) Clone() Event {
	out := e
	out.Divisions = append([]string{}, e.Divisions...)
	out.Metrics = append([]string{}, e.Metrics...)
	out.ParticipantIds = append([]string{}, e.ParticipantIds...)
	out.ParticipantData = make(map[string]EventParticipantData, len(e.ParticipantData))
	for k, v := range e.ParticipantData {
		out.ParticipantData[k] = v.Clone()
	}
	return out
}

func (t Tournament) Clone() Tournament {
	out := t
	out.Participants = make([]Participant, len(t.Participants))
	for i, p := range t.Participants {
		out.Participants[i] = p.Clone()
	}
	out.Events = make([]Event, len(t.Events))
	for i, e := range t.Events {
		out.Events[i] = e.Clone()
	}
	return out
}
