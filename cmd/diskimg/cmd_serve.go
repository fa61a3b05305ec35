package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/eightbit-archive/diskimg"
	"github.com/eightbit-archive/diskimg/internal/loggy"
)

var serveCmd = &cobra.Command{
	Use:   "serve <path>",
	Short: "Serve a read-only JSON inspector for a disk image over HTTP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		di, err := openImage(args[0], true)
		if err != nil {
			return err
		}
		defer di.Close()

		log := loggy.GetSession(di.Session())
		r := mux.NewRouter()
		r.HandleFunc("/info", infoHandler(di)).Methods("GET")
		r.HandleFunc("/list", listHandler(di)).Methods("GET")
		r.HandleFunc("/sector/{track}/{sector}", sectorHandler(di)).Methods("GET")

		log.Logf("serving %s on %s", args[0], cfg.ServeAddr)
		return http.ListenAndServe(cfg.ServeAddr, r)
	},
}

func infoHandler(di *diskimg.DiskImage) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		probe, err := probeFilesystem(di)
		body := map[string]interface{}{
			"file_format": di.FileFormat().String(),
			"order":       di.Order().String(),
			"tracks":      di.NumTracks(),
			"sectors":     di.NumSectors(),
			"blocks":      di.NumBlocks(),
		}
		if err == nil {
			body["filesystem"] = probe.Driver.Format().String()
			body["volume_name"] = probe.Driver.VolumeName()
		}
		writeJSON(w, body)
	}
}

func listHandler(di *diskimg.DiskImage) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		probe, err := probeFilesystem(di)
		if err != nil {
			writeError(w, err)
			return
		}
		entries, err := probe.Driver.List(req.URL.Query().Get("pattern"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, entries)
	}
}

func sectorHandler(di *diskimg.DiskImage) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		vars := mux.Vars(req)
		track, err1 := strconv.Atoi(vars["track"])
		sector, err2 := strconv.Atoi(vars["sector"])
		if err1 != nil || err2 != nil {
			writeError(w, diskimg.New(diskimg.ErrInvalidArg, "bad track/sector"))
			return
		}
		data, err := di.ReadTrackSector(track, sector, di.Order())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]interface{}{"track": track, "sector": sector, "data": data[:]})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch diskimg.CodeOf(err) {
	case diskimg.ErrInvalidArg, diskimg.ErrInvalidTrack, diskimg.ErrInvalidSector:
		status = http.StatusBadRequest
	case diskimg.ErrFilesystemNotFound, diskimg.ErrFileNotFound:
		status = http.StatusNotFound
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
