// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package capture schedules timed data-acquisition runs and records their
// metadata on disk.
//
// A run is one directory under the storage root, named by its id: the UTC
// start time formatted as YYYYMMDDTHHMMSSZ. Two runs started in the same
// second get -2, -3 and so on appended. The directory is created before
// Scheduler.Start returns; metadata.json appears only after the capture
// window elapses, written by the Executor in the background. Until then the
// run is in progress and the Registry does not list it.
//
// metadata.json holds timestamp, title, motor_state and break_amperage
// followed by the extra request fields in the order they were sent. Extra
// fields that reuse one of those names are dropped.
package capture
