package model

import "maps"

// Clone returns a deep copy of the assessment.
func (a *Assessment) Clone() *Assessment {
	if a == nil {
		return nil
	}
	out := *a
	if a.Actor != nil {
		actor := *a.Actor
		out.Actor = &actor
	}
	if a.Organisation != nil {
		org := *a.Organisation
		out.Organisation = &org
	}
	if a.Subject != nil {
		subject := *a.Subject
		out.Subject = &subject
	}
	if a.Submitter != nil {
		profile := *a.Submitter
		out.Submitter = &profile
	}
	if a.Result != nil {
		result := ResultSummary{Ranking: a.Result.Ranking, Compliance: cloneBool(a.Result.Compliance)}
		out.Result = &result
	}
	out.Principles = clonePrinciples(a.Principles)
	return &out
}

func clonePrinciples(in []Principle) []Principle {
	if in == nil {
		return nil
	}
	out := make([]Principle, len(in))
	for i, p := range in {
		out[i] = p
		if p.Criteria != nil {
			out[i].Criteria = make([]Criterion, len(p.Criteria))
			for j, c := range p.Criteria {
				out[i].Criteria[j] = c.clone()
			}
		}
	}
	return out
}

func (c Criterion) clone() Criterion {
	out := c
	if c.Metric != nil {
		m := c.Metric.clone()
		out.Metric = &m
	}
	if c.Metrics != nil {
		out.Metrics = make([]Metric, len(c.Metrics))
		for i, m := range c.Metrics {
			out.Metrics[i] = m.clone()
		}
	}
	return out
}

func (m Metric) clone() Metric {
	out := m
	out.BenchmarkValue = cloneFloat(m.BenchmarkValue)
	out.Benchmark = maps.Clone(m.Benchmark)
	out.Value = cloneFloat(m.Value)
	out.Result = cloneFloat(m.Result)
	if m.Tests != nil {
		out.Tests = make([]Test, len(m.Tests))
		for i, t := range m.Tests {
			out.Tests[i] = t
			out.Tests[i].Result = cloneFloat(t.Result)
			out.Tests[i].Params = maps.Clone(t.Params)
		}
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
