// Package transitarchive decodes a zipped transit archive (stops,
// stop_times, pathways as CSV tables; trips are formed by grouping
// stop_times by trip_id) into the raw shapes internal/graphbuild
// expects. Adapted from the teacher's
// internal/gtfs/parser.go: same archive/zip + encoding/csv +
// column-name-indexed row shape, but deliberately diverging on error
// handling -- the teacher logs and skips malformed rows, this decoder
// returns a hard error for any missing mandatory field, per the
// specification's fail-fast ingest contract.
package transitarchive

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/impactsolutionsas/transit-isochrones/internal/engineerr"
	"github.com/impactsolutionsas/transit-isochrones/internal/graphbuild"
)

// Decode extracts the zip at zipPath and parses its stops.txt,
// stop_times.txt, and optional pathways.txt tables into the graphbuild
// package's raw shapes, grouping stop-times by trip_id. trips.txt is
// not read.
func Decode(zipPath string) ([]graphbuild.RawStop, []graphbuild.RawPathway, []graphbuild.RawTrip, error) {
	tempDir, err := os.MkdirTemp("", "transitarchive-*")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to create temp dir: %v", engineerr.ErrIngest, err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractZip(zipPath, tempDir); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: failed to extract archive: %v", engineerr.ErrIngest, err)
	}

	stops, err := parseStops(filepath.Join(tempDir, "stops.txt"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: stops.txt: %v", engineerr.ErrIngest, err)
	}

	pathways, err := parsePathways(filepath.Join(tempDir, "pathways.txt"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: pathways.txt: %v", engineerr.ErrIngest, err)
	}

	stopTimes, err := parseStopTimes(filepath.Join(tempDir, "stop_times.txt"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: stop_times.txt: %v", engineerr.ErrIngest, err)
	}

	trips := groupStopTimesByTrip(stopTimes)

	return stops, pathways, trips, nil
}

type stopTimeRow struct {
	tripID string
	graphbuild.RawStopTime
}

func groupStopTimesByTrip(rows []stopTimeRow) []graphbuild.RawTrip {
	order := make([]string, 0)
	byTrip := make(map[string][]graphbuild.RawStopTime)
	for _, r := range rows {
		if _, seen := byTrip[r.tripID]; !seen {
			order = append(order, r.tripID)
		}
		byTrip[r.tripID] = append(byTrip[r.tripID], r.RawStopTime)
	}
	trips := make([]graphbuild.RawTrip, 0, len(order))
	for _, id := range order {
		sts := byTrip[id]
		sortBySequence(sts)
		trips = append(trips, graphbuild.RawTrip{ID: id, StopTimes: sts})
	}
	return trips
}

func sortBySequence(sts []graphbuild.RawStopTime) {
	for i := 1; i < len(sts); i++ {
		for j := i; j > 0 && sts[j-1].Sequence > sts[j].Sequence; j-- {
			sts[j-1], sts[j] = sts[j], sts[j-1]
		}
	}
}

func parseStops(path string) ([]graphbuild.RawStop, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var stops []graphbuild.RawStop
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed stop row: %w", err)
		}

		id := getField(record, colMap, "stop_id")
		latStr := getField(record, colMap, "stop_lat")
		lonStr := getField(record, colMap, "stop_lon")
		if id == "" || latStr == "" || lonStr == "" {
			return nil, fmt.Errorf("stop %q is missing required coordinates", id)
		}

		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("stop %q has invalid latitude %q: %w", id, latStr, err)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil, fmt.Errorf("stop %q has invalid longitude %q: %w", id, lonStr, err)
		}

		stops = append(stops, graphbuild.RawStop{ID: id, Lon: lon, Lat: lat})
	}
	return stops, nil
}

func parsePathways(path string) ([]graphbuild.RawPathway, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // pathways are optional
		}
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var pathways []graphbuild.RawPathway
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed pathway row: %w", err)
		}

		from := getField(record, colMap, "from_stop_id")
		to := getField(record, colMap, "to_stop_id")
		if from == "" || to == "" {
			return nil, fmt.Errorf("pathway is missing a stop reference")
		}

		direction := graphbuild.Unidirectional
		if getField(record, colMap, "is_bidirectional") == "1" {
			direction = graphbuild.Bidirectional
		}

		var traversal *uint32
		if s := getField(record, colMap, "traversal_time"); s != "" {
			v, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("pathway %s->%s has invalid traversal_time %q: %w", from, to, s, err)
			}
			t := uint32(v)
			traversal = &t
		}

		pathways = append(pathways, graphbuild.RawPathway{
			FromStop:      from,
			ToStop:        to,
			Direction:     direction,
			TraversalTime: traversal,
		})
	}
	return pathways, nil
}

func parseStopTimes(path string) ([]stopTimeRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var rows []stopTimeRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed stop_time row: %w", err)
		}

		tripID := getField(record, colMap, "trip_id")
		stopID := getField(record, colMap, "stop_id")
		seqStr := getField(record, colMap, "stop_sequence")
		arrivalStr := getField(record, colMap, "arrival_time")
		departureStr := getField(record, colMap, "departure_time")

		if tripID == "" || stopID == "" || seqStr == "" || arrivalStr == "" || departureStr == "" {
			return nil, fmt.Errorf("trip %q stop_time row is missing a mandatory field", tripID)
		}

		seq, err := strconv.Atoi(seqStr)
		if err != nil {
			return nil, fmt.Errorf("trip %q has invalid stop_sequence %q: %w", tripID, seqStr, err)
		}
		arrival, err := ParseTimeToSeconds(arrivalStr)
		if err != nil {
			return nil, fmt.Errorf("trip %q has invalid arrival_time %q: %w", tripID, arrivalStr, err)
		}
		departure, err := ParseTimeToSeconds(departureStr)
		if err != nil {
			return nil, fmt.Errorf("trip %q has invalid departure_time %q: %w", tripID, departureStr, err)
		}

		rows = append(rows, stopTimeRow{
			tripID: tripID,
			RawStopTime: graphbuild.RawStopTime{
				StopID:        stopID,
				Sequence:      seq,
				ArrivalTime:   uint32(arrival),
				DepartureTime: uint32(departure),
			},
		})
	}
	return rows, nil
}

// ParseTimeToSeconds converts a GTFS-style "HH:MM:SS" time into
// seconds past local midnight. Hours may exceed 23 for service past
// midnight, matching the teacher's internal/gtfs/normalize.go, which
// this is adapted from unchanged.
func ParseTimeToSeconds(timeStr string) (int, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format: %s", timeStr)
	}

	var hours, minutes, seconds int
	if _, err := fmt.Sscanf(parts[0], "%d", &hours); err != nil {
		return 0, fmt.Errorf("invalid hours in time %s: %w", timeStr, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minutes); err != nil {
		return 0, fmt.Errorf("invalid minutes in time %s: %w", timeStr, err)
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &seconds); err != nil {
		return 0, fmt.Errorf("invalid seconds in time %s: %w", timeStr, err)
	}

	return hours*3600 + minutes*60 + seconds, nil
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		destPath := filepath.Join(destDir, filepath.Base(file.Name))
		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(outFile, rc)
		rc.Close()
		outFile.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
