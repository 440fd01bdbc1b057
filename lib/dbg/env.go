/*
   Copyright 2024 The Daml authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package dbg

import (
	"os"
	"strconv"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
)

// Operational knobs for the participant's in-memory read path. Values are
// read once from the environment; compiled-in defaults apply otherwise.
var (
	// BufferSize - how many committed events the in-memory events buffer retains
	BufferSize = EnvInt("LEDGER_BUFFER_SIZE", 16_384)
	// BufferChunkSize - cap on the number of events returned by one buffer read
	BufferChunkSize = EnvInt("LEDGER_BUFFER_CHUNK_SIZE", 1_024)
)

var (
	bufferMemoryBudget     datasize.ByteSize
	bufferMemoryBudgetOnce sync.Once
)

// BufferMemoryBudget returns the memory envelope operators granted to the
// events buffer, zero when unset. Callers divide by their mean entry size to
// derive a buffer length.
func BufferMemoryBudget() datasize.ByteSize {
	bufferMemoryBudgetOnce.Do(func() {
		v, _ := os.LookupEnv("LEDGER_BUFFER_MEMORY_BUDGET")
		if v == "" {
			return
		}
		if err := bufferMemoryBudget.UnmarshalText([]byte(v)); err != nil {
			panic(err)
		}
		log.Info("[env]", "LEDGER_BUFFER_MEMORY_BUDGET", bufferMemoryBudget.HR())
	})
	return bufferMemoryBudget
}

func EnvBool(envVarName string, defaultVal bool) bool {
	v, _ := os.LookupEnv(envVarName)
	if v == "true" {
		log.Info("[env]", envVarName, true)
		return true
	}
	if v == "false" {
		log.Info("[env]", envVarName, false)
		return false
	}
	return defaultVal
}

func EnvInt(envVarName string, defaultVal int) int {
	v, _ := os.LookupEnv(envVarName)
	if v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		log.Info("[env]", envVarName, i)
		return i
	}
	return defaultVal
}

func EnvString(envVarName string, defaultVal string) string {
	v, _ := os.LookupEnv(envVarName)
	if v != "" {
		log.Info("[env]", envVarName, v)
		return v
	}
	return defaultVal
}
