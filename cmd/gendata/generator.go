package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"time"
)

type city struct {
	name     string
	lat, lon float64
}

// Stations of the Upper Silesian-Zaglebie metropolis.
var cities = []city{
	{"Katowice", 50.2643, 19.0235},
	{"Sosnowiec", 50.2779, 19.1267},
	{"Dąbrowa Górnicza", 50.3215, 19.1949},
	{"Czeladź", 50.3173, 19.0705},
	{"Mysłowice", 50.2422, 19.1383},
	{"Piekary Śląskie", 50.3802, 18.9265},
	{"Chorzów", 50.3058, 18.9742},
	{"Bytom", 50.3500, 18.9100},
	{"Zabrze", 50.3249, 18.7858},
	{"Gliwice", 50.3100, 18.6700},
	{"Mikołów", 50.1790, 18.9040},
	{"Ruda Śląska", 50.2584, 18.8563},
	{"Tarnowskie Góry", 50.4455, 18.8615},
	{"Pyskowice", 50.3956, 18.6345},
}

// series describes one generated column: its starting range and hard bounds.
type series struct {
	column             string
	startMin, startMax float64
	min, max           float64
}

var seriesDefs = []series{
	{column: "PM25", startMin: 25, startMax: 40, min: 5, max: 50},
	{column: "temperatura", startMin: -10, startMax: 10, min: -30, max: 40},
	{column: "wilgotnosc", startMin: 40, startMax: 80, min: 10, max: 100},
}

var header = []string{"name", "lat", "lon", "date", "PM25", "temperatura", "wilgotnosc"}

type generator struct {
	rng *rand.Rand
}

func newGenerator(seed int64) *generator {
	return &generator{rng: rand.New(rand.NewSource(seed))}
}

// step moves prev by a random factor in [0.95, 1.05], clamps it to [min, max]
// and rounds to one decimal.
func (g *generator) step(prev, min, max float64) float64 {
	v := prev * (0.95 + 0.1*g.rng.Float64())
	v = math.Max(min, math.Min(max, v))
	return math.Round(v*10) / 10
}

// write emits one row per city per day from start to end inclusive and
// returns the number of data rows written.
func (g *generator) write(w io.Writer, start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("start %s is after end %s", start.Format(dateLayout), end.Format(dateLayout))
	}

	prev := make([][]float64, len(cities))
	for i := range cities {
		prev[i] = make([]float64, len(seriesDefs))
		for j, s := range seriesDefs {
			prev[i][j] = s.startMin + (s.startMax-s.startMin)*g.rng.Float64()
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}
	rows := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		for i, c := range cities {
			rec := []string{c.name, formatCoord(c.lat), formatCoord(c.lon), date}
			for j, s := range seriesDefs {
				prev[i][j] = g.step(prev[i][j], s.min, s.max)
				rec = append(rec, strconv.FormatFloat(prev[i][j], 'f', 1, 64))
			}
			if err := cw.Write(rec); err != nil {
				return rows, err
			}
			rows++
		}
	}
	cw.Flush()
	return rows, cw.Error()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
