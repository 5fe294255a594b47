package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/config"
	"github.com/cyclopcam/sweeplabel/pkg/cvui"
	"github.com/cyclopcam/sweeplabel/pkg/dataset"
	"github.com/cyclopcam/sweeplabel/pkg/player"
	"github.com/cyclopcam/sweeplabel/pkg/sidecar"
	"github.com/cyclopcam/sweeplabel/pkg/storage"
	"github.com/cyclopcam/sweeplabel/pkg/sweep"
	"github.com/cyclopcam/sweeplabel/pkg/verify"
	"github.com/cyclopcam/sweeplabel/pkg/videox"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("sweeplabel", "Build object detection datasets from videos of a sweeping camera")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Config file (defaults to " + config.DefaultFilename + ", if present)", Required: false, Default: ""})

	fetchCmd := parser.NewCommand("fetch", "Download and convert the videos of a dataset")
	fetchID := fetchCmd.String("d", "dataset", &argparse.Options{Help: "Dataset ID", Required: true})

	labelCmd := parser.NewCommand("label", "Draw boxes on videos, and export the sampled frames")
	labelID := labelCmd.String("d", "dataset", &argparse.Options{Help: "Dataset ID", Required: true})
	labelVideo := labelCmd.String("v", "video", &argparse.Options{Help: "Label only this video (default is every .avi in the dataset's video folder)", Required: false, Default: ""})

	exportCmd := parser.NewCommand("export", "Export a previously labelled video, using its sidecar file, without opening a window")
	exportID := exportCmd.String("d", "dataset", &argparse.Options{Help: "Dataset ID", Required: true})
	exportVideo := exportCmd.String("v", "video", &argparse.Options{Help: "Video file", Required: true})

	verifyCmd := parser.NewCommand("verify", "Review exported images, and split the accepted ones into train and val sets")
	verifyIDs := verifyCmd.String("d", "datasets", &argparse.Options{Help: "Comma-separated list of export IDs", Required: true})
	verifyRecover := verifyCmd.Flag("", "recover", &argparse.Options{Help: "Don't review. Take the accepted set from images already in the dataset folder"})
	verifyUpload := verifyCmd.Flag("u", "upload", &argparse.Options{Help: "Upload the dataset when done"})

	uploadCmd := parser.NewCommand("upload", "Upload a finished dataset")
	uploadIDs := uploadCmd.String("d", "datasets", &argparse.Options{Help: "Comma-separated list of export IDs", Required: true})
	uploadOnlyJSON := uploadCmd.Flag("j", "json", &argparse.Options{Help: "Upload only the annotation files"})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}

	switch {
	case fetchCmd.Happened():
		err = fetch(logger, cfg, *fetchID)
	case labelCmd.Happened():
		err = label(logger, cfg, *labelID, *labelVideo)
	case exportCmd.Happened():
		err = export(logger, cfg, *exportID, *exportVideo)
	case verifyCmd.Happened():
		err = verifyDatasets(logger, cfg, *verifyIDs, *verifyRecover, *verifyUpload)
	case uploadCmd.Happened():
		err = upload(logger, cfg, *uploadIDs, *uploadOnlyJSON)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func fetch(logger logs.Log, cfg *config.Config, id string) error {
	store, err := config.OpenStorage(logger, cfg.VideoStorage)
	if err != nil {
		return err
	}
	fetcher := &storage.Fetcher{
		Log:           logger,
		Store:         store,
		Workers:       cfg.FetchWorkers,
		Convert:       videox.TranscodeAVI,
		ConvertedName: videox.ConvertedName,
	}
	_, err = fetcher.Fetch(id, cfg.VideosDir(id))
	return err
}

// openSession builds the store and calibration of a video, restoring the sidecar if there is one
func openSession(logger logs.Log, cfg *config.Config, videoPath string, src videox.FrameSource) (*sweep.Store, *sweep.Calibration, error) {
	calib, err := sweep.NewCalibration(cfg.CalibrationParams(), src.FrameCount(), src.FrameSize(), cfg.WindowWidth)
	if err != nil {
		return nil, nil, err
	}
	store := sweep.NewStore(src.FrameCount())
	sc, err := sidecar.Load(sidecar.PathFor(videoPath))
	if err != nil {
		return nil, nil, err
	}
	if sc != nil {
		if err := sc.Restore(store, calib); err != nil {
			return nil, nil, err
		}
		logger.Infof("Restored %v rectangles from %v", store.Len(), sidecar.PathFor(videoPath))
	}
	return store, calib, nil
}

func newBuilder(logger logs.Log, cfg *config.Config, id, videoPath string) *dataset.Builder {
	return &dataset.Builder{
		Log:           logger,
		ExportDir:     cfg.ExportsDir(id),
		VideoBaseName: filepath.Base(videoPath),
		SidecarPath:   sidecar.PathFor(videoPath),
	}
}

func label(logger logs.Log, cfg *config.Config, id, video string) error {
	videos := []string{video}
	if video == "" {
		var err error
		videos, err = videox.ListConverted(cfg.VideosDir(id))
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			return fmt.Errorf("No .avi videos in %v. Run 'fetch' first", cfg.VideosDir(id))
		}
	}
	for _, videoPath := range videos {
		if err := labelVideo(logger, cfg, id, videoPath); err != nil {
			return err
		}
	}
	return nil
}

func labelVideo(logger logs.Log, cfg *config.Config, id, videoPath string) error {
	src, err := cvui.OpenVideo(videoPath)
	if err != nil {
		return err
	}
	defer src.Close()
	store, calib, err := openSession(logger, cfg, videoPath, src)
	if err != nil {
		return err
	}
	window := cvui.NewLabelWindow(videoPath, src.FrameCount())
	defer window.Close()

	logger.Infof("Labelling %v (%v frames)", videoPath, src.FrameCount())
	p := player.New(logger, window, src, store, calib, newBuilder(logger, cfg, id, videoPath))
	return p.Run()
}

func export(logger logs.Log, cfg *config.Config, id, videoPath string) error {
	if _, err := os.Stat(sidecar.PathFor(videoPath)); err != nil {
		return fmt.Errorf("Video %v has not been labelled: %w", videoPath, err)
	}
	src, err := videox.OpenFFmpegSource(videoPath)
	if err != nil {
		return err
	}
	defer src.Close()
	store, calib, err := openSession(logger, cfg, videoPath, src)
	if err != nil {
		return err
	}
	_, err = newBuilder(logger, cfg, id, videoPath).Export(src, store, calib)
	return err
}

func verifyDatasets(logger logs.Log, cfg *config.Config, idList string, recoverOnly, doUpload bool) error {
	ids, err := config.ParseIDs(idList)
	if err != nil {
		return err
	}
	exportDirs := []string{}
	for _, id := range ids {
		exportDirs = append(exportDirs, cfg.ExportsDir(id))
	}
	candidates, err := verify.LoadExports(exportDirs)
	if err != nil {
		return err
	}
	datasetDir := cfg.DatasetDir(ids)
	datasetID := filepath.Base(datasetDir)

	var accepted []dataset.Record
	if recoverOnly {
		accepted, err = dataset.RecoverAccepted(candidates, datasetDir)
		if err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.JournalPath()), 0755); err != nil {
			return err
		}
		journal, err := verify.OpenJournal(logger, cfg.JournalPath(), datasetID)
		if err != nil {
			return err
		}
		defer journal.Close()

		session := verify.NewSession(candidates)
		n, err := journal.Replay(session)
		if err != nil {
			return err
		}
		if n != 0 {
			logger.Infof("Resuming review of %v at image %v/%v", datasetID, session.Cursor(), session.Len())
		}

		window := cvui.NewReviewWindow("window")
		defer window.Close()
		reviewer := &verify.Reviewer{
			Log:          logger,
			Viewer:       window,
			Journal:      journal,
			DisplayWidth: cfg.WindowWidth,
		}
		completed, err := reviewer.Run(session)
		if err != nil {
			return err
		}
		if !completed {
			logger.Infof("Review of %v is incomplete. Run verify again to resume.", datasetID)
			return nil
		}
		accepted = session.Accepted()
		if err := journal.Clear(); err != nil {
			return err
		}
	}

	splits, err := dataset.Finalize(logger, dataset.Split(accepted, cfg.TrainRatio, nil), datasetDir)
	if err != nil {
		return err
	}
	kept := len(splits[dataset.SplitTrain]) + len(splits[dataset.SplitVal])
	if len(candidates) != 0 {
		logger.Infof("%v of %v copied to dataset. Kept ratio: %.2f", kept, len(candidates), float64(kept)/float64(len(candidates)))
	}

	if doUpload {
		return uploadDataset(logger, cfg, datasetDir, recoverOnly)
	}
	return nil
}

func upload(logger logs.Log, cfg *config.Config, idList string, onlyJSON bool) error {
	ids, err := config.ParseIDs(idList)
	if err != nil {
		return err
	}
	return uploadDataset(logger, cfg, cfg.DatasetDir(ids), onlyJSON)
}

func uploadDataset(logger logs.Log, cfg *config.Config, datasetDir string, onlyJSON bool) error {
	if _, err := os.Stat(datasetDir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("Dataset %v does not exist", datasetDir)
	}
	store, err := config.OpenStorage(logger, cfg.DatasetStorage)
	if err != nil {
		return err
	}
	_, err = storage.UploadDataset(logger, store, datasetDir, onlyJSON)
	return err
}
