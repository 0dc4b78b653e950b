package gputelemetry

import (
	"context"
	"encoding/xml"
	"os/exec"
	"strconv"
	"strings"

	cnserrors "github.com/gpuorch/gpud/pkg/errors"
)

const nvidiaSMICommand = "nvidia-smi"

// nvsmiLog mirrors the subset of `nvidia-smi -q -x` output this package reads.
type nvsmiLog struct {
	XMLName       xml.Name   `xml:"nvidia_smi_log"`
	DriverVersion string     `xml:"driver_version"`
	CudaVersion   string     `xml:"cuda_version"`
	GPUs          []nvsmiGPU `xml:"gpu"`
}

type nvsmiGPU struct {
	UUID          string        `xml:"uuid"`
	FbMemoryUsage fbMemoryUsage `xml:"fb_memory_usage"`
	Temperature   temperature   `xml:"temperature"`
	Utilization   utilization   `xml:"utilization"`
}

type fbMemoryUsage struct {
	Total string `xml:"total"`
	Used  string `xml:"used"`
}

type temperature struct {
	GPUTemp string `xml:"gpu_temp"`
}

type utilization struct {
	GPUUtil string `xml:"gpu_util"`
}

// NvidiaSMI collects telemetry by shelling out to nvidia-smi's XML query mode.
type NvidiaSMI struct{}

// Snapshot runs nvidia-smi once and parses every attached GPU's reading. If
// nvidia-smi is not installed, it returns an empty, non-error snapshot —
// telemetry is cosmetic, never load-bearing for allocation.
func (NvidiaSMI) Snapshot(ctx context.Context) ([]Reading, error) {
	if _, err := exec.LookPath(nvidiaSMICommand); err != nil {
		return nil, nil
	}

	out, err := exec.CommandContext(ctx, nvidiaSMICommand, "-q", "-x").Output()
	if err != nil {
		return nil, cnserrors.Wrap(cnserrors.ErrCodeInternal, "nvidia-smi query failed", err)
	}

	return parseReadings(out)
}

func parseReadings(data []byte) ([]Reading, error) {
	var log nvsmiLog
	if err := xml.Unmarshal(data, &log); err != nil {
		return nil, cnserrors.Wrap(cnserrors.ErrCodeInternal, "parsing nvidia-smi xml", err)
	}

	readings := make([]Reading, 0, len(log.GPUs))
	for _, g := range log.GPUs {
		readings = append(readings, Reading{
			ID:       g.UUID,
			MemUsed:  parseMB(g.FbMemoryUsage.Used),
			MemTotal: parseMB(g.FbMemoryUsage.Total),
			TempC:    parseIntPrefix(g.Temperature.GPUTemp),
			UtilPct:  parseIntPrefix(g.Utilization.GPUUtil),
		})
	}
	return readings, nil
}

// parseMB reads a value like "81559 MiB" into 81559.
func parseMB(s string) int64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseIntPrefix reads a value like "42 C" or "17 %" into 42/17.
func parseIntPrefix(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return v
}
