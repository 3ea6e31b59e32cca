package bankimport

import "strings"

type MatchOutcome string

const (
	MatchFound     MatchOutcome = "matched"
	MatchAmbiguous MatchOutcome = "ambiguous"
	MatchNone      MatchOutcome = "unmatched"
)

// MemberSnapshot: eşleştirme için batch başında bir kez yüklenen aktif üye.
type MemberSnapshot struct {
	ID           uint
	FirstName    string
	LastName     string
	MemberNumber string
}

func (m MemberSnapshot) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

type MatchResult struct {
	Outcome    MatchOutcome
	Member     *MemberSnapshot
	Candidates []uint // ambiguous durumunda aday üye id'leri
}

// MatchMember: banka hareketini en fazla bir üyeyle eşleştirir.
// Öncelik sırası: 1) referans + açıklama metninde üye numarası,
// 2) karşı taraf metninde soyad VE ad birlikte. Aynı kademede birden fazla
// aday çıkarsa sonuç Ambiguous olur ve satır manuel eşleştirmeye düşer;
// alt kademeye inilmez.
func MatchMember(row TransactionRow, members []MemberSnapshot) MatchResult {
	searchText := strings.ToLower(row.Reference + " " + row.Purpose)

	var hits []*MemberSnapshot
	for i := range members {
		m := &members[i]
		num := strings.ToLower(strings.TrimSpace(m.MemberNumber))
		if num == "" {
			continue
		}
		if strings.Contains(searchText, num) {
			hits = append(hits, m)
		}
	}
	if res, done := resolveHits(hits); done {
		return res
	}

	counterparty := strings.ToLower(strings.TrimSpace(row.Counterparty))
	if counterparty != "" {
		hits = hits[:0]
		for i := range members {
			m := &members[i]
			last := strings.ToLower(strings.TrimSpace(m.LastName))
			first := strings.ToLower(strings.TrimSpace(m.FirstName))
			if last == "" || first == "" {
				continue
			}
			if strings.Contains(counterparty, last) && strings.Contains(counterparty, first) {
				hits = append(hits, m)
			}
		}
		if res, done := resolveHits(hits); done {
			return res
		}
	}

	return MatchResult{Outcome: MatchNone}
}

func resolveHits(hits []*MemberSnapshot) (MatchResult, bool) {
	switch len(hits) {
	case 0:
		return MatchResult{}, false
	case 1:
		return MatchResult{Outcome: MatchFound, Member: hits[0]}, true
	default:
		ids := make([]uint, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.ID)
		}
		return MatchResult{Outcome: MatchAmbiguous, Candidates: ids}, true
	}
}
