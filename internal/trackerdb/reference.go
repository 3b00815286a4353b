package trackerdb

import "trackerscope/internal/dnsclient"

// Record is the tracker metadata attached to one tracker domain.
type Record struct {
	Domain     string
	Company    *string
	Categories []string
}

// Reference maps tracker domains to their metadata in a fixed order.
// Classification is first-match-wins, so the order is part of the result:
// entries keep the position of their first insertion and the value of the
// last one.
type Reference struct {
	entries []Record
	index   map[string]int
}

func NewReference() *Reference {
	return &Reference{index: make(map[string]int)}
}

// Set records domain (normalized) with the given metadata.
func (r *Reference) Set(domain string, company *string, categories []string) {
	domain = dnsclient.NormalizeDomain(domain)
	if categories == nil {
		categories = []string{}
	}
	rec := Record{Domain: domain, Company: company, Categories: categories}
	if i, ok := r.index[domain]; ok {
		r.entries[i] = rec
		return
	}
	r.index[domain] = len(r.entries)
	r.entries = append(r.entries, rec)
}

func (r *Reference) Lookup(domain string) (Record, bool) {
	i, ok := r.index[dnsclient.NormalizeDomain(domain)]
	if !ok {
		return Record{}, false
	}
	return r.entries[i], true
}

// Entries returns the records in reference order. Callers must not modify
// the slice.
func (r *Reference) Entries() []Record {
	return r.entries
}

func (r *Reference) Len() int {
	return len(r.entries)
}
