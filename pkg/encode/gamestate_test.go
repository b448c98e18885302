package encode

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/track"
	"github.com/stretchr/testify/require"
)

func readPredictions(t *testing.T, path string) []map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := map[string][]map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	preds, ok := doc["predictions"]
	require.True(t, ok)
	return preds
}

func TestGameStateDocument(t *testing.T) {
	detections, frames, sequences := makeTestState()
	dir := t.TempDir()
	enc, err := Lookup(FormatGameState)
	require.NoError(t, err)

	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, dir, SaveOptions{}))

	preds := readPredictions(t, filepath.Join(dir, "SNMOT-060.json"))
	// 3 tracked objects + camera and pitch entries for both frames.
	// The untracked detection is dropped.
	require.Len(t, preds, 7)

	// Entries are sorted by id in string order, so "2" lands after the
	// five-digit frame-derived ids
	ids := []string{}
	bySuper := map[string]int{}
	for _, p := range preds {
		ids = append(ids, p["id"].(string))
		bySuper[p["supercategory"].(string)]++
	}
	require.Equal(t, []string{"0", "1", "10000", "10001", "10100", "10101", "2"}, ids)
	require.Equal(t, map[string]int{"object": 3, "camera": 2, "pitch": 2}, bySuper)
}

func TestGameStateObjectRecord(t *testing.T) {
	detections, frames, sequences := makeTestState()
	detections[1].Role = "player"
	detections[1].Team = "left"
	detections[1].Jersey = iptr(10)
	dir := t.TempDir()
	enc, _ := Lookup(FormatGameState)

	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, dir, SaveOptions{}))

	preds := readPredictions(t, filepath.Join(dir, "SNMOT-060.json"))
	var rich, bare map[string]any
	for _, p := range preds {
		switch p["id"] {
		case "1":
			rich = p
		case "2":
			bare = p
		}
	}
	require.NotNil(t, rich)
	require.NotNil(t, bare)

	require.Equal(t, "100", rich["image_id"])
	require.Equal(t, "1", rich["video_id"])
	require.Equal(t, float64(1), rich["track_id"])
	require.Equal(t, map[string]any{"x": float64(10), "y": float64(20), "w": float64(30), "h": float64(40)}, rich["bbox_image"])
	require.Equal(t, []any{float64(1), float64(2), float64(3), float64(4)}, rich["bbox_pitch"])
	require.Equal(t, map[string]any{"role": "player", "jersey": float64(10), "team": "left"}, rich["attributes"])

	// Unknown attributes leave the sub-mapping present but empty
	require.Equal(t, map[string]any{}, bare["attributes"])
	// Frame-metadata fields never appear on object records
	require.NotContains(t, bare, "parameters")
	require.NotContains(t, bare, "lines")
}

func TestGameStateObjectFiltering(t *testing.T) {
	detections, frames, sequences := makeTestState()
	// Drop the pitch box from one tracked detection; it must be filtered out
	detections[0].BboxPitch = nil
	dir := t.TempDir()
	enc, _ := Lookup(FormatGameState)

	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, dir, SaveOptions{}))

	preds := readPredictions(t, filepath.Join(dir, "SNMOT-060.json"))
	for _, p := range preds {
		require.NotEqual(t, "0", p["id"])
	}
}

func TestGameStateFrameRecords(t *testing.T) {
	detections, frames, sequences := makeTestState()
	reproj := 0.02
	frames[100].Parameters = map[string]any{"pan": 1.5}
	frames[100].RelativeMeanReproj = &reproj
	frames[101].Lines = map[string][]track.PitchPoint{
		"Side line top": {{X: 0.1, Y: 0.2}},
	}
	dir := t.TempDir()
	enc, _ := Lookup(FormatGameState)

	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, dir, SaveOptions{}))

	preds := readPredictions(t, filepath.Join(dir, "SNMOT-060.json"))
	byID := map[string]map[string]any{}
	for _, p := range preds {
		byID[p["id"].(string)] = p
	}

	camera := byID["10001"]
	require.Equal(t, "camera", camera["supercategory"])
	require.Equal(t, float64(6), camera["category_id"])
	require.Equal(t, "100", camera["image_id"])
	require.Equal(t, map[string]any{"pan": 1.5}, camera["parameters"])
	require.Equal(t, 0.02, camera["relative_mean_reproj"])
	// No calibration on the second frame: the keys are omitted, not null
	require.NotContains(t, byID["10101"], "parameters")
	require.NotContains(t, byID["10101"], "relative_mean_reproj")

	pitch := byID["10100"]
	require.Equal(t, "pitch", pitch["supercategory"])
	require.Equal(t, float64(5), pitch["category_id"])
	require.Contains(t, pitch, "lines")
	require.NotContains(t, byID["10000"], "lines")

	// Camera and pitch entries carry no object payload
	require.NotContains(t, camera, "attributes")
	require.NotContains(t, camera, "bbox_image")
	require.NotContains(t, camera, "track_id")
}

func TestGameStateSkipsEmptySequence(t *testing.T) {
	detections, frames, sequences := makeTestState()
	sequences[2] = &track.SequenceMetadata{ID: 2, Name: "SNMOT-061", NFrames: 0}
	dir := t.TempDir()
	enc, _ := Lookup(FormatGameState)

	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, dir, SaveOptions{}))

	_, err := os.Stat(filepath.Join(dir, "SNMOT-061.json"))
	require.True(t, os.IsNotExist(err))
}

func TestGameStateZipArchive(t *testing.T) {
	detections, frames, sequences := makeTestState()
	root := t.TempDir()
	saveDir := filepath.Join(root, "SoccerNetGS-test", "tracklab")
	enc, _ := Lookup(FormatGameState)

	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, saveDir, SaveOptions{Zip: true}))

	// The archive sits next to the predictions root's parent, named after it
	zipPath := filepath.Join(root, "SoccerNetGS-test.zip")
	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	require.Equal(t, "tracklab/SNMOT-060.json", zr.File[0].Name)
	require.NoError(t, zr.Close())

	// A second sequence appends to the archive without losing the first entry
	frames[102] = &track.FrameMetadata{ID: 102, Frame: 0, VideoID: 2}
	sequences[2] = &track.SequenceMetadata{ID: 2, Name: "SNMOT-061", NFrames: 1}
	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, saveDir, SaveOptions{Zip: true}))

	zr, err = zip.OpenReader(zipPath)
	require.NoError(t, err)
	names := []string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.ElementsMatch(t, []string{"tracklab/SNMOT-060.json", "tracklab/SNMOT-061.json"}, names)
	require.NoError(t, zr.Close())
}

func TestGameStateGroundTruthIsNoop(t *testing.T) {
	detections, frames, sequences := makeTestState()
	dir := filepath.Join(t.TempDir(), "gt")
	enc, _ := Lookup(FormatGameState)

	require.NoError(t, enc.Save(logs.NewTestingLog(t), detections, frames, sequences, dir, SaveOptions{IsGroundTruth: true}))

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}
