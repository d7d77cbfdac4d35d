// Copyright 2026 Blink Labs Software
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

package event

import "time"

const (
	ValidatorAddedEventType   = EventType("validator.added")
	ValidatorRemovedEventType = EventType("validator.removed")
	ValidatorUpdatedEventType = EventType("validator.updated")
)

type ValidatorAddedEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	Address         string    `json:"address"`
	InstitutionId   string    `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
}

// ValidatorRemovedEvent is emitted when a validator is deactivated
type ValidatorRemovedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Address   string    `json:"address"`
}

type ValidatorUpdatedEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	Address         string    `json:"address"`
	InstitutionId   string    `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
}
