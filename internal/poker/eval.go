package poker

import "sort"

// Hand categories, ordered weakest to strongest.
const (
	CategoryHighCard = iota
	CategoryPair
	CategoryTwoPair
	CategoryTrips
	CategoryStraight
	CategoryFlush
	CategoryFullHouse
	CategoryFourOfAKind
	CategoryStraightFlush
)

// Score is a showdown hand's rank: a category plus up to 5
// highest-first tiebreaker ranks, compared lexicographically.
type Score struct {
	Category    int
	TieBreakers [5]int
}

// Compare returns -1 if a < b, 0 if equal, 1 if a > b, using the same
// ordering as standard poker hand ranking.
func Compare(a, b Score) int {
	if a.Category != b.Category {
		if a.Category < b.Category {
			return -1
		}
		return 1
	}
	for i := range a.TieBreakers {
		if a.TieBreakers[i] != b.TieBreakers[i] {
			if a.TieBreakers[i] < b.TieBreakers[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

type counts struct {
	rank [NumRanks]int
	suit [NumSuits]int
	freq [5]int // freq[n] = number of ranks that appear exactly n times, n in 2..4
}

func countCards(cards []Card) counts {
	var c counts
	for _, card := range cards {
		c.rank[card.Rank()]++
		c.suit[card.Suit()]++
	}
	for r := 0; r < NumRanks; r++ {
		if c.rank[r] >= 2 && c.rank[r] <= 4 {
			c.freq[c.rank[r]]++
		}
	}
	return c
}

// findStraightHigh scans rankCounts (indexed 0=Two..12=Ace) for five
// consecutive occupied ranks, highest first, including the wheel
// (A-2-3-4-5) whose high card is reported as rank index 3 (the Five).
func findStraightHigh(rankCounts [NumRanks]int) (int, bool) {
	streak, high := 0, 0
	for r := NumRanks - 1; r >= 0; r-- {
		if rankCounts[r] == 0 {
			streak = 0
			if r < 4 {
				break
			}
			continue
		}
		if streak == 0 {
			high = r
			streak = 1
		} else if r == high-streak {
			streak++
			if streak == 5 {
				return high, true
			}
		} else {
			high = r
			streak = 1
			if r < 4 {
				break
			}
		}
	}

	if rankCounts[12] != 0 && rankCounts[0] != 0 && rankCounts[1] != 0 && rankCounts[2] != 0 && rankCounts[3] != 0 {
		return 3, true
	}
	return 0, false
}

func flushSuit(c counts) (int, bool) {
	for s := 0; s < NumSuits; s++ {
		if c.suit[s] >= 5 {
			return s, true
		}
	}
	return 0, false
}

func tryStraightFlush(cards []Card, c counts) (Score, bool) {
	suit, ok := flushSuit(c)
	if !ok {
		return Score{}, false
	}
	var flushRanks [NumRanks]int
	for _, card := range cards {
		if card.Suit() == suit {
			flushRanks[card.Rank()]++
		}
	}
	high, ok := findStraightHigh(flushRanks)
	if !ok {
		return Score{}, false
	}
	return Score{Category: CategoryStraightFlush, TieBreakers: [5]int{high}}, true
}

func tryFourOfAKind(c counts) (Score, bool) {
	for r := NumRanks - 1; r >= 0; r-- {
		if c.rank[r] != 4 {
			continue
		}
		for k := NumRanks - 1; k >= 0; k-- {
			if k != r && c.rank[k] > 0 {
				return Score{Category: CategoryFourOfAKind, TieBreakers: [5]int{r, k}}, true
			}
		}
	}
	return Score{}, false
}

func tryFullHouse(c counts) (Score, bool) {
	trips, pair := -1, -1
	for r := NumRanks - 1; r >= 0; r-- {
		if c.rank[r] >= 3 && trips == -1 {
			trips = r
		} else if c.rank[r] >= 2 && pair == -1 {
			pair = r
		}
	}
	if trips >= 0 && pair >= 0 {
		return Score{Category: CategoryFullHouse, TieBreakers: [5]int{trips, pair}}, true
	}
	return Score{}, false
}

func tryFlush(cards []Card, c counts) (Score, bool) {
	suit, ok := flushSuit(c)
	if !ok {
		return Score{}, false
	}
	var ranks []int
	for _, card := range cards {
		if card.Suit() == suit {
			ranks = append(ranks, card.Rank())
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))
	var tb [5]int
	copy(tb[:], ranks[:5])
	return Score{Category: CategoryFlush, TieBreakers: tb}, true
}

func tryStraight(c counts) (Score, bool) {
	high, ok := findStraightHigh(c.rank)
	if !ok {
		return Score{}, false
	}
	return Score{Category: CategoryStraight, TieBreakers: [5]int{high}}, true
}

func tryThreeOfAKind(c counts) (Score, bool) {
	t := -1
	for r := NumRanks - 1; r >= 0; r-- {
		if c.rank[r] == 3 {
			t = r
			break
		}
	}
	if t == -1 {
		return Score{}, false
	}
	s := Score{Category: CategoryTrips, TieBreakers: [5]int{t}}
	i := 1
	for r := NumRanks - 1; r >= 0 && i < 3; r-- {
		if r != t && c.rank[r] > 0 {
			s.TieBreakers[i] = r
			i++
		}
	}
	return s, true
}

func tryTwoPair(c counts) (Score, bool) {
	if c.freq[2] < 2 {
		return Score{}, false
	}
	p1, p2 := -1, -1
	for r := NumRanks - 1; r >= 0; r-- {
		if c.rank[r] >= 2 {
			if p1 == -1 {
				p1 = r
			} else if p2 == -1 {
				p2 = r
				break
			}
		}
	}
	if p1 == -1 || p2 == -1 {
		return Score{}, false
	}
	for k := NumRanks - 1; k >= 0; k-- {
		if k != p1 && k != p2 && c.rank[k] > 0 {
			return Score{Category: CategoryTwoPair, TieBreakers: [5]int{p1, p2, k}}, true
		}
	}
	return Score{}, false
}

func tryOnePair(c counts) (Score, bool) {
	p := -1
	for r := NumRanks - 1; r >= 0; r-- {
		if c.rank[r] >= 2 {
			p = r
			break
		}
	}
	if p == -1 {
		return Score{}, false
	}
	s := Score{Category: CategoryPair, TieBreakers: [5]int{p}}
	i := 1
	for r := NumRanks - 1; r >= 0 && i < 4; r-- {
		if r != p && c.rank[r] > 0 {
			s.TieBreakers[i] = r
			i++
		}
	}
	return s, true
}

func highCard(c counts) Score {
	var s Score
	i := 0
	for r := NumRanks - 1; r >= 0 && i < 5; r-- {
		if c.rank[r] > 0 {
			s.TieBreakers[i] = r
			i++
		}
	}
	return s
}

// Evaluate scores the best 5-card hand out of two hole cards and five
// community cards, in strict priority order from straight flush down
// to high card.
func Evaluate(hole [2]Card, community [5]Card) Score {
	cards := []Card{hole[0], hole[1], community[0], community[1], community[2], community[3], community[4]}
	c := countCards(cards)

	if s, ok := tryStraightFlush(cards, c); ok {
		return s
	}
	if s, ok := tryFourOfAKind(c); ok {
		return s
	}
	if s, ok := tryFullHouse(c); ok {
		return s
	}
	if s, ok := tryFlush(cards, c); ok {
		return s
	}
	if s, ok := tryStraight(c); ok {
		return s
	}
	if s, ok := tryThreeOfAKind(c); ok {
		return s
	}
	if s, ok := tryTwoPair(c); ok {
		return s
	}
	if s, ok := tryOnePair(c); ok {
		return s
	}
	return highCard(c)
}
