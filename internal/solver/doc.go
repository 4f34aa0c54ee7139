// Package solver содержит stateless алгоритмы, которые используются
// как handler'ы узлов графа или как тело задачи агента swarm.
//
// Включает:
//   - search.go   — бинарный, jump и интерполяционный поиск
//   - sampling.go — приближённые медиана и подсчёт по выборке
//   - sketch.go   — count-min sketch (xxhash)
//   - paths.go    — кратчайшие пути (Dijkstra, O(V²), несколько источников)
//   - csp.go      — backtracking CSP со структурированными ограничениями
//   - optimize.go — градиентный спуск с численным градиентом
//   - signal.go   — эвристика momentum/volatility
//   - run.go      — вызов алгоритма по имени с JSON-параметрами
//
// Все функции детерминированы, кроме сэмплирующих: им передаётся *rand.Rand.
package solver
