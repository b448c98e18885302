package encode

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/track"
	"github.com/schollz/progressbar/v3"
)

// MOTChallengeEncoder writes the MOT Challenge text format: one file per
// sequence, one comma-separated line per detection, no header:
//
//	frame, track_id, bb_left, bb_top, bb_width, bb_height, conf, <class|-1>, y, z
//
// Frame indices are 1-based. The x/y/z columns are unused 3D placeholders,
// fixed at -1; when SaveClasses is off the class column is the x placeholder.
type MOTChallengeEncoder struct {
}

func (e *MOTChallengeEncoder) Name() string {
	return FormatMOTChallenge
}

type motRow struct {
	frame   int
	videoID int64
	trackID int64
	bb      [4]float32
	conf    *float32
	classID *int
}

func (e *MOTChallengeEncoder) Save(log logs.Log, detections track.DetectionList, frames track.FrameTable, sequences track.SequenceTable, saveDir string, opts SaveOptions) error {
	if opts.IsGroundTruth {
		// The benchmark supplies ground truth through its own directory
		// layout; we never re-encode it.
		return nil
	}
	bboxColumn := opts.BboxColumn
	if bboxColumn == "" {
		bboxColumn = track.ColumnBboxLTWH
	}
	rows, dropped, err := motEncoding(detections, frames, bboxColumn)
	if err != nil {
		return err
	}
	if dropped > 0 {
		log.Warnf("Dropped %v detections with missing track or bbox values", dropped)
	}

	if err := os.MkdirAll(saveDir, 0770); err != nil {
		return err
	}

	seqIDs := sequences.SortedIDs()
	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(seqIDs)), "Writing sequences")
	}
	for _, id := range seqIDs {
		seq := sequences[id]
		filePath := filepath.Join(saveDir, seq.Name+".txt")
		if err := writeMOTSequence(filePath, filterMOTRows(rows, id), opts.SaveClasses); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return nil
}

// motEncoding joins detections to their frames and drops rows that lack a
// required field. A detection whose frame is unknown is silently dropped
// (inner join); a joined row missing its track id or bbox is counted in the
// returned drop count.
func motEncoding(detections track.DetectionList, frames track.FrameTable, bboxColumn string) ([]motRow, int, error) {
	boxes, err := detections.BoxColumn(bboxColumn)
	if err != nil {
		return nil, 0, err
	}
	rows := []motRow{}
	dropped := 0
	for i, d := range detections {
		frame, ok := frames[d.ImageID]
		if !ok {
			continue
		}
		if d.TrackID == nil || boxes[i] == nil {
			dropped++
			continue
		}
		rows = append(rows, motRow{
			frame:   frame.Frame,
			videoID: frame.VideoID,
			trackID: *d.TrackID,
			bb:      *boxes[i],
			conf:    d.BboxConf,
			classID: d.CategoryID,
		})
	}
	return rows, dropped, nil
}

func filterMOTRows(rows []motRow, videoID int64) []motRow {
	out := []motRow{}
	for _, r := range rows {
		if r.videoID == videoID {
			out = append(out, r)
		}
	}
	return out
}

func writeMOTSequence(filePath string, rows []motRow, saveClasses bool) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()
	if len(rows) == 0 {
		// An empty sequence still gets an (empty) file.
		return nil
	}

	// The format is 1-indexed. Upstream frame indices may start at 0 or 1.
	minFrame := rows[0].frame
	for _, r := range rows {
		minFrame = min(minFrame, r.frame)
	}
	shift := 0
	if minFrame == 0 {
		shift = 1
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].frame < rows[j].frame })

	w := csv.NewWriter(f)
	for _, r := range rows {
		class := "-1"
		if saveClasses {
			class = ""
			if r.classID != nil {
				class = strconv.Itoa(*r.classID)
			}
		}
		conf := ""
		if r.conf != nil {
			conf = formatFloat(*r.conf)
		}
		record := []string{
			strconv.Itoa(r.frame + shift),
			strconv.FormatInt(r.trackID, 10),
			formatFloat(r.bb[0]),
			formatFloat(r.bb[1]),
			formatFloat(r.bb[2]),
			formatFloat(r.bb[3]),
			conf,
			class,
			"-1",
			"-1",
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
