/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/studentstore"
	"github.com/tomoncle/studentstore/config"
	"github.com/tomoncle/studentstore/database"
	"github.com/tomoncle/studentstore/model"
	"github.com/tomoncle/studentstore/utils"
)

func main() {
	cfg := config.MustLoad()
	logErr := cfg.ApplyLogging()
	log := utils.NewLogger("MAIN").WithField("env", cfg.Env)
	if logErr != nil {
		log.WithError(logErr).Warn("file logging disabled")
	}
	defer utils.DisableFileLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := database.InitDB(cfg.ConfigLoader()); err != nil {
		log.WithError(err).Error("database initialization failed")
		os.Exit(1)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}()

	if err := run(ctx, studentstore.NewStudentStore(), log); err != nil {
		log.WithError(err).Error("student walk-through failed")
		_ = database.CloseDB()
		os.Exit(1)
	}
}

func run(ctx context.Context, store studentstore.StudentStore, log *logrus.Entry) error {
	before, err := store.Count(ctx)
	if err != nil {
		return err
	}
	log.WithField("count", before).Info("students on startup")

	student, err := store.Save(ctx, model.NewStudent("Hedy Lamarr", "Vienna"))
	if err != nil {
		return err
	}
	log.WithField("student", student.String()).Info("saved")

	student.Address = "Hollywood"
	if _, err := store.Save(ctx, student); err != nil {
		return err
	}
	found, ok, err := store.FindByID(ctx, student.ID)
	if err != nil {
		return err
	}
	if ok {
		log.WithField("student", found.String()).Info("updated")
	}

	all, err := store.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, s := range all {
		log.WithField("student", s.String()).Debug("listed")
	}

	if err := store.DeleteByID(ctx, student.ID); err != nil {
		return err
	}
	_, ok, err = store.FindByID(ctx, student.ID)
	if err != nil {
		return err
	}
	after, err := store.Count(ctx)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"still_present": ok, "count": after}).Info("deleted")

	health := database.GetHealthStatus(ctx)
	log.WithFields(logrus.Fields{
		"healthy":       health.Healthy,
		"response_time": health.ResponseTime.String(),
	}).Info("database health")
	return nil
}
