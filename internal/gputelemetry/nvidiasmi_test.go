package gputelemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" ?>
<nvidia_smi_log>
	<driver_version>570.86.15</driver_version>
	<cuda_version>12.8</cuda_version>
	<gpu>
		<uuid>GPU-aaaa</uuid>
		<fb_memory_usage>
			<total>81559 MiB</total>
			<used>1024 MiB</used>
		</fb_memory_usage>
		<temperature>
			<gpu_temp>42 C</gpu_temp>
		</temperature>
		<utilization>
			<gpu_util>17 %</gpu_util>
		</utilization>
	</gpu>
</nvidia_smi_log>`

func TestParseReadings(t *testing.T) {
	readings, err := parseReadings([]byte(sampleXML))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.Equal(t, "GPU-aaaa", readings[0].ID)
	require.EqualValues(t, 81559, readings[0].MemTotal)
	require.EqualValues(t, 1024, readings[0].MemUsed)
	require.Equal(t, 42, readings[0].TempC)
	require.Equal(t, 17, readings[0].UtilPct)
}

func TestParseReadingsInvalidXML(t *testing.T) {
	_, err := parseReadings([]byte("not xml"))
	require.Error(t, err)
}

func TestParseReadingsNoGPUs(t *testing.T) {
	readings, err := parseReadings([]byte(`<nvidia_smi_log><driver_version>1</driver_version></nvidia_smi_log>`))
	require.NoError(t, err)
	require.Empty(t, readings)
}
