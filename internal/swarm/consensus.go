package swarm

import (
	"encoding/json"
	"fmt"

	"github.com/shaiso/Colony/internal/domain"
)

// AchieveConsensus подсчитывает голоса за результаты агентов.
//
// Результаты сравниваются по канонической JSON-форме (ключи map
// сортируются encoding/json). Победитель — значение с наибольшим числом
// голосов; при равенстве побеждает встреченное первым.
// confidence = maxCount/total, achieved = confidence ≥ threshold.
// Пустой вход даёт achieved=false, confidence=0.
func AchieveConsensus(results []any, threshold float64) domain.ConsensusResult {
	total := len(results)
	if total == 0 {
		return domain.ConsensusResult{Achieved: false, Confidence: 0, Votes: 0, Total: 0}
	}

	counts := make(map[string]int, total)
	first := make(map[string]int, total)
	keys := make([]string, total)

	for i, r := range results {
		key := canonical(r)
		keys[i] = key
		if _, seen := first[key]; !seen {
			first[key] = i
		}
		counts[key]++
	}

	// Обходим в порядке появления: строгое > сохраняет первое вхождение
	best := keys[0]
	for _, key := range keys {
		if counts[key] > counts[best] {
			best = key
		}
	}

	votes := counts[best]
	confidence := float64(votes) / float64(total)

	return domain.ConsensusResult{
		Achieved:   confidence >= threshold,
		Confidence: confidence,
		Result:     results[first[best]],
		Votes:      votes,
		Total:      total,
	}
}

// canonical возвращает сравнимую форму результата.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		// Несериализуемые значения сравниваются по типу и печатной форме
		return fmt.Sprintf("!%T:%v", v, v)
	}
	return string(b)
}
